package app

import (
	"context"
	"log"
	"time"

	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

type tracedDispatcher struct {
	next   core.Dispatcher
	logger *log.Logger
	runID  string
}

func newTracedDispatcher(next core.Dispatcher, logger *log.Logger, runID string) *tracedDispatcher {
	return &tracedDispatcher{next: next, logger: logger, runID: runID}
}

func (t *tracedDispatcher) Dispatch(ctx context.Context, records []profiles.UploadRecord) (profiles.ProcessingResponse, error) {
	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	requested := 0
	for _, r := range records {
		requested += r.MaxResults
	}
	t.logger.Printf(
		"run=%s level=info msg=\"dispatch request\" companies=%d requestedProfiles=%d deadlineIn=%s",
		t.runID,
		len(records),
		requested,
		deadlineIn,
	)

	start := time.Now()
	resp, err := t.next.Dispatch(ctx, records)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		t.logger.Printf(
			"run=%s level=error msg=\"dispatch failed\" duration=%s kind=%s error=%q",
			t.runID,
			elapsed,
			Classify(err),
			UserMessage(err),
		)
		return resp, err
	}

	t.logger.Printf(
		"run=%s level=info msg=\"dispatch response\" duration=%s status=%q profiles=%d processedCompanies=%d",
		t.runID,
		elapsed,
		resp.Status,
		len(resp.Profiles),
		len(resp.ProcessedCompanies),
	)
	return resp, nil
}
