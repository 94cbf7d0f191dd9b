package core

import (
	"context"

	"github.com/shpitdev/profile-finder/pkg/profiles"
)

// Dispatcher sends a validated company list to the remote service in one call.
type Dispatcher interface {
	Dispatch(ctx context.Context, records []profiles.UploadRecord) (profiles.ProcessingResponse, error)
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(ctx context.Context, records []profiles.UploadRecord) (profiles.ProcessingResponse, error)

func (f DispatchFunc) Dispatch(ctx context.Context, records []profiles.UploadRecord) (profiles.ProcessingResponse, error) {
	return f(ctx, records)
}

// Searcher finds profiles for a single company. Only the stand-in webhook uses it.
type Searcher interface {
	Search(ctx context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error)
}

// ValidationError reports unusable input. It is raised before any network call.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "validation error"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TransientError marks an error as retryable by worker implementations.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
