package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	localio "github.com/shpitdev/profile-finder/pkg/pipeline/io/local"
	"github.com/shpitdev/profile-finder/pkg/pipeline/redact"
	"github.com/shpitdev/profile-finder/pkg/profiles"
	"github.com/shpitdev/profile-finder/pkg/webhook"
)

// Options tunes a single submission.
type Options struct {
	Logger *log.Logger

	// Now is the clock used for elapsed time. Defaults to time.Now.
	Now func() time.Time
}

// Outcome is everything a successful submission produced.
type Outcome struct {
	RunID    string
	Records  int
	Response profiles.ProcessingResponse
	Elapsed  time.Duration
}

// ErrorKind is the class of a failed submission.
type ErrorKind string

const (
	ErrorKindNone       ErrorKind = ""
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindTransport  ErrorKind = "transport"
	ErrorKindProcessing ErrorKind = "processing"
	ErrorKindNetwork    ErrorKind = "network"
	ErrorKindOther      ErrorKind = "other"
)

// Classify maps a Submit error onto the error taxonomy shown to users.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return ErrorKindValidation
	}
	var te *webhook.TransportError
	if errors.As(err, &te) {
		return ErrorKindTransport
	}
	var pe *webhook.ProcessingError
	if errors.As(err, &pe) {
		return ErrorKindProcessing
	}
	var ne *webhook.NetworkError
	if errors.As(err, &ne) {
		return ErrorKindNetwork
	}
	return ErrorKindOther
}

// UserMessage renders err for the status message slot.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *core.ValidationError
		te *webhook.TransportError
		pe *webhook.ProcessingError
		ne *webhook.NetworkError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &te):
		return te.Error()
	case errors.As(err, &pe):
		return pe.Error()
	case errors.As(err, &ne):
		return ne.Error()
	default:
		return redact.Secrets(err.Error())
	}
}

// Submit ingests the uploaded CSV and dispatches it in one call.
//
// Validation failures return before the dispatcher is touched. Elapsed covers
// dispatch start to response receipt only.
func Submit(ctx context.Context, in io.Reader, d core.Dispatcher, opts Options) (Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	runID := "run-" + uuid.NewString()[:8]

	records, err := localio.ReadUploadRecords(in)
	if err != nil {
		logger.Printf("run=%s level=warn msg=\"upload rejected\" err=%q", runID, err.Error())
		return Outcome{RunID: runID}, err
	}
	logger.Printf("run=%s level=info msg=\"upload parsed\" companies=%d", runID, len(records))

	start := now()
	resp, err := newTracedDispatcher(d, logger, runID).Dispatch(ctx, records)
	elapsed := now().Sub(start)
	if err != nil {
		return Outcome{RunID: runID, Records: len(records), Elapsed: elapsed}, fmt.Errorf("dispatch: %w", err)
	}
	return Outcome{
		RunID:    runID,
		Records:  len(records),
		Response: resp,
		Elapsed:  elapsed,
	}, nil
}
