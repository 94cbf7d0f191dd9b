// Package ui holds the per-session page state and the single function that
// moves it between phases.
package ui

import (
	"fmt"
	"time"

	"github.com/shpitdev/profile-finder/internal/app"
	"github.com/shpitdev/profile-finder/internal/present"
	"github.com/shpitdev/profile-finder/pkg/pipeline/schema"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseFileSelected Phase = "file-selected"
	PhaseSubmitting   Phase = "submitting"
	PhaseSucceeded    Phase = "succeeded"
	PhaseFailed       Phase = "failed"
)

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
	MessageInfo    MessageKind = "info"
)

// ProcessingText is shown while a dispatch is in flight.
const ProcessingText = "Processing companies, this can take a few minutes..."

type Message struct {
	Kind MessageKind
	Text string
}

// State is one session's page. Zero value is idle.
type State struct {
	Phase     Phase
	Layout    schema.Layout
	FileName  string
	FileSize  int64
	StartedAt time.Time
	Loading   bool
	Message   *Message

	// Outcome and View are set only in PhaseSucceeded.
	Outcome *app.Outcome
	View    *present.View
}

// HasResults reports whether there is anything to export.
func (s State) HasResults() bool {
	return s.View != nil && !s.View.Empty()
}

// Event is anything Reduce accepts.
type Event interface {
	isEvent()
}

type FileSelected struct {
	Name string
	Size int64
}

type SubmitStarted struct {
	At time.Time
}

type SubmitSucceeded struct {
	Outcome app.Outcome
}

type SubmitFailed struct {
	Err error
}

// Dismissed clears the message and any held results.
type Dismissed struct{}

// LayoutChanged switches between flat and grouped tables without refetching.
type LayoutChanged struct {
	Layout schema.Layout
}

func (FileSelected) isEvent()    {}
func (SubmitStarted) isEvent()   {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}
func (Dismissed) isEvent()       {}
func (LayoutChanged) isEvent()   {}

// Reduce returns the state that follows s after e. Unknown events leave s as is.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case FileSelected:
		return State{
			Phase:    PhaseFileSelected,
			Layout:   s.Layout,
			FileName: ev.Name,
			FileSize: ev.Size,
		}

	case SubmitStarted:
		return State{
			Phase:     PhaseSubmitting,
			Layout:    s.Layout,
			FileName:  s.FileName,
			FileSize:  s.FileSize,
			StartedAt: ev.At,
			Loading:   true,
			Message:   &Message{Kind: MessageInfo, Text: ProcessingText},
		}

	case SubmitSucceeded:
		out := ev.Outcome
		view := present.NewView(s.Layout, out.Response, out.Elapsed)
		return State{
			Phase:    PhaseSucceeded,
			Layout:   s.Layout,
			FileName: s.FileName,
			FileSize: s.FileSize,
			Message:  &Message{Kind: MessageSuccess, Text: successText(view.Summary)},
			Outcome:  &out,
			View:     &view,
		}

	case SubmitFailed:
		text := app.UserMessage(ev.Err)
		if text == "" {
			text = "Submission failed"
		}
		return State{
			Phase:   PhaseFailed,
			Layout:  s.Layout,
			Message: &Message{Kind: MessageError, Text: "Error: " + text},
		}

	case Dismissed:
		return State{Phase: PhaseIdle, Layout: s.Layout}

	case LayoutChanged:
		s.Layout = schema.NormalizeLayout(string(ev.Layout))
		if s.Outcome != nil {
			view := present.NewView(s.Layout, s.Outcome.Response, s.Outcome.Elapsed)
			s.View = &view
		}
		return s
	}
	return s
}

func successText(sum present.Summary) string {
	return fmt.Sprintf("Found %d profiles across %d companies in %s", sum.Profiles, sum.Companies, present.ElapsedLabel(sum.Elapsed))
}
