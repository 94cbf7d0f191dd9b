package mockwebhook

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	"github.com/shpitdev/profile-finder/pkg/pipeline/worker"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

// Call records a request made to the stand-in webhook.
type Call struct {
	Method  string
	Path    string
	Request profiles.Request
}

type fault struct {
	status int
	body   string
}

// Server answers the profile-search webhook contract locally.
//
// Companies are searched concurrently through the worker pool; a batch either
// succeeds as a whole or is reported as a processing failure.
type Server struct {
	searcher core.Searcher
	opts     worker.Options
	logger   *log.Logger
	now      func() time.Time

	mu       sync.Mutex
	calls    []Call
	fault    *fault
	canned   *profiles.ProcessingResponse
	maxBytes int64
}

// New constructs a server backed by searcher.
func New(searcher core.Searcher, opts worker.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	opts.FailurePolicy = worker.FailurePolicyFailFast
	return &Server{
		searcher: searcher,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		maxBytes: 5 << 20,
	}
}

// FailWithStatus makes every following request answer with status and body.
// A zero status clears the fault.
func (s *Server) FailWithStatus(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		s.fault = nil
		return
	}
	s.fault = &fault{status: status, body: body}
}

// RespondWith makes every following request answer 200 with resp verbatim.
// A nil resp restores normal searching.
func (s *Server) RespondWith(resp *profiles.ProcessingResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned = resp
}

// SetClock overrides the timestamp source.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Handler returns an http.Handler that serves the webhook on every path.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWebhook)
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req profiles.Request
	b, err := io.ReadAll(io.LimitReader(r.Body, s.maxBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if err := json.Unmarshal(b, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Request: req})
	flt := s.fault
	canned := s.canned
	now := s.now
	s.mu.Unlock()

	if flt != nil {
		http.Error(w, flt.body, flt.status)
		return
	}
	if canned != nil {
		writeJSON(w, http.StatusOK, canned)
		return
	}

	if len(req.Body) == 0 {
		writeJSON(w, http.StatusOK, profiles.ProcessingResponse{
			Status:  "error",
			Message: "request body must contain at least one company",
		})
		return
	}
	for _, rec := range req.Body {
		if strings.TrimSpace(rec.CompanyName) == "" || strings.TrimSpace(rec.Region) == "" {
			writeJSON(w, http.StatusOK, profiles.ProcessingResponse{
				Status:  "error",
				Message: "every company needs a Company Name and a Region",
			})
			return
		}
	}

	start := time.Now()
	results, err := worker.SearchAll(r.Context(), req.Body, s.searcher, s.opts, func(res worker.CompanyResult) {
		status := "ok"
		if res.Err != nil {
			status = "error"
		}
		s.logger.Printf(
			"level=info msg=\"company searched\" company=%q region=%q status=%s profiles=%d attempts=%d dur_ms=%d",
			res.Record.CompanyName, res.Record.Region, status, len(res.Profiles), res.Attempts, res.Elapsed.Milliseconds(),
		)
	})
	if err != nil {
		s.logger.Printf("level=error msg=\"batch failed\" companies=%d err=%q", len(req.Body), err.Error())
		writeJSON(w, http.StatusOK, profiles.ProcessingResponse{
			Status:  "error",
			Message: fmt.Sprintf("search failed: %v", err),
		})
		return
	}

	resp := buildResponse(results, now())
	s.logger.Printf(
		"level=info msg=\"batch complete\" companies=%d profiles=%d dur_ms=%d",
		*resp.TotalCompanies, *resp.TotalProfiles, time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, resp)
}

func buildResponse(results []worker.CompanyResult, now time.Time) profiles.ProcessingResponse {
	found := make([]profiles.ProfileResult, 0)
	processed := make([]string, 0, len(results))
	for _, res := range results {
		processed = append(processed, res.Record.CompanyName)
		limit := res.Record.MaxResults
		if limit <= 0 {
			limit = profiles.DefaultMaxResults
		}
		for i, p := range res.Profiles {
			if i >= limit {
				break
			}
			p.SearchCompany = res.Record.CompanyName
			p.SearchRegion = res.Record.Region
			found = append(found, p)
		}
	}
	return profiles.ProcessingResponse{
		Status:             profiles.StatusSuccess,
		Message:            fmt.Sprintf("Processed %d companies", len(processed)),
		TotalCompanies:     profiles.IntPtr(len(processed)),
		TotalProfiles:      profiles.IntPtr(len(found)),
		ProcessedCompanies: processed,
		Profiles:           found,
		Timestamp:          now.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
