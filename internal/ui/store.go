package ui

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shpitdev/profile-finder/pkg/pipeline/schema"
)

// ErrBusy is returned by Begin while the session already has a dispatch in flight.
var ErrBusy = errors.New("a submission is already in progress")

// Store keeps one State per browser session. Nothing survives a restart.
type Store struct {
	mu            sync.Mutex
	sessions      map[string]State
	defaultLayout schema.Layout
}

func NewStore(defaultLayout schema.Layout) *Store {
	return &Store{
		sessions:      make(map[string]State),
		defaultLayout: schema.NormalizeLayout(string(defaultLayout)),
	}
}

// NewSessionID returns a fresh opaque session key.
func NewSessionID() string {
	return uuid.NewString()
}

func (s *Store) Get(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *Store) getLocked(id string) State {
	st, ok := s.sessions[id]
	if !ok {
		return State{Phase: PhaseIdle, Layout: s.defaultLayout}
	}
	return st
}

// Apply reduces e into the session's state and returns the result.
func (s *Store) Apply(id string, e Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Reduce(s.getLocked(id), e)
	s.sessions[id] = next
	return next
}

// Begin selects the file and starts a submission in one step. It refuses when
// the session is already submitting.
func (s *Store) Begin(id, fileName string, fileSize int64, at time.Time) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.getLocked(id)
	if cur.Phase == PhaseSubmitting {
		return cur, ErrBusy
	}
	next := Reduce(cur, FileSelected{Name: fileName, Size: fileSize})
	next = Reduce(next, SubmitStarted{At: at})
	s.sessions[id] = next
	return next, nil
}

// Reject records a failure that happened before anything was dispatched. A
// submission already in flight belongs to another request, so the session is
// left alone and ErrBusy is returned with its current state.
func (s *Store) Reject(id string, err error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.getLocked(id)
	if cur.Phase == PhaseSubmitting {
		return cur, ErrBusy
	}
	next := Reduce(cur, SubmitFailed{Err: err})
	s.sessions[id] = next
	return next, nil
}

// Reset forgets the session, returning it to idle. It refuses with ErrBusy
// while a submission is in flight.
func (s *Store) Reset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getLocked(id).Phase == PhaseSubmitting {
		return ErrBusy
	}
	delete(s.sessions, id)
	return nil
}
