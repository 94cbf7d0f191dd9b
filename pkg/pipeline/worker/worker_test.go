package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	"github.com/shpitdev/profile-finder/pkg/pipeline/worker"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

type searchFunc func(ctx context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error)

func (f searchFunc) Search(ctx context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
	return f(ctx, rec)
}

func records(names ...string) []profiles.UploadRecord {
	out := make([]profiles.UploadRecord, 0, len(names))
	for _, n := range names {
		out = append(out, profiles.UploadRecord{CompanyName: n, Region: "US", MaxResults: 1})
	}
	return out
}

func fastOpts() worker.Options {
	return worker.Options{
		Workers:           2,
		MaxRetries:        3,
		RequestTimeout:    time.Second,
		BackoffInitial:    time.Millisecond,
		BackoffMax:        2 * time.Millisecond,
		BackoffJitterFrac: 0,
	}
}

func TestSearchAll_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	fn := searchFunc(func(_ context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
		if rec.CompanyName == "slow" {
			time.Sleep(20 * time.Millisecond)
		}
		return []profiles.ProfileResult{{Name: "p-" + rec.CompanyName, SearchCompany: rec.CompanyName}}, nil
	})

	out, err := worker.SearchAll(context.Background(), records("slow", "a", "b", "c"), fn, fastOpts(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []string{"slow", "a", "b", "c"} {
		if out[i].Record.CompanyName != want || out[i].Profiles[0].Name != "p-"+want {
			t.Fatalf("out[%d]=%#v want company %q", i, out[i], want)
		}
	}
}

func TestSearchAll_RetriesTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fn := searchFunc(func(_ context.Context, _ profiles.UploadRecord) ([]profiles.ProfileResult, error) {
		if calls.Add(1) <= 2 {
			return nil, &core.TransientError{Err: errors.New("try again")}
		}
		return []profiles.ProfileResult{{Name: "ok"}}, nil
	})

	opts := fastOpts()
	opts.Workers = 1
	out, err := worker.SearchAll(context.Background(), records("acme"), fn, opts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Err != nil || out[0].Attempts != 3 {
		t.Fatalf("unexpected result: %#v", out[0])
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestSearchAll_DoesNotRetryPermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fn := searchFunc(func(_ context.Context, _ profiles.UploadRecord) ([]profiles.ProfileResult, error) {
		calls.Add(1)
		return nil, errors.New("permanent")
	})

	opts := fastOpts()
	opts.FailurePolicy = worker.FailurePolicyPartialOutput
	out, err := worker.SearchAll(context.Background(), records("acme"), fn, opts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Err == nil || out[0].Err.Error() != "permanent" {
		t.Fatalf("unexpected result: %#v", out[0])
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestSearchAll_FailFastReturnsFirstError(t *testing.T) {
	t.Parallel()

	fn := searchFunc(func(_ context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
		if rec.CompanyName == "bad" {
			return nil, errors.New("boom")
		}
		return nil, nil
	})

	opts := fastOpts()
	opts.Workers = 1
	out, err := worker.SearchAll(context.Background(), records("bad", "good"), fn, opts, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil output on fail-fast, got %#v", out)
	}
}

func TestSearchAll_OnDoneSeesEveryCompany(t *testing.T) {
	t.Parallel()

	fn := searchFunc(func(_ context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
		return []profiles.ProfileResult{{SearchCompany: rec.CompanyName}}, nil
	})

	var mu sync.Mutex
	seen := map[string]bool{}
	names := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		names = append(names, fmt.Sprintf("c%d", i))
	}
	_, err := worker.SearchAll(context.Background(), records(names...), fn, fastOpts(), func(res worker.CompanyResult) {
		mu.Lock()
		defer mu.Unlock()
		seen[res.Record.CompanyName] = true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 completions, got %d", len(seen))
	}
}

func TestSearchAll_RateLimited(t *testing.T) {
	t.Parallel()

	fn := searchFunc(func(_ context.Context, _ profiles.UploadRecord) ([]profiles.ProfileResult, error) {
		return nil, nil
	})

	opts := fastOpts()
	opts.Workers = 3
	opts.RateLimitRPS = 20
	start := time.Now()
	if _, err := worker.SearchAll(context.Background(), records("a", "b", "c"), fn, opts, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Burst of 1 at 20 rps: the third call waits at least ~100ms.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("expected rate limiting, finished in %s", elapsed)
	}
}

func TestSearchAll_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fn := searchFunc(func(ctx context.Context, _ profiles.UploadRecord) ([]profiles.ProfileResult, error) {
		return nil, ctx.Err()
	})
	_, err := worker.SearchAll(ctx, records("a"), fn, fastOpts(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSearchAll_NegativeOptionsFallBackToDefaults(t *testing.T) {
	t.Parallel()

	var deadline atomic.Bool
	fn := searchFunc(func(ctx context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
		_, ok := ctx.Deadline()
		deadline.Store(ok)
		return []profiles.ProfileResult{{Name: rec.CompanyName}}, nil
	})

	opts := worker.Options{Workers: -3, MaxRetries: -1, RequestTimeout: -time.Second}
	out, err := worker.SearchAll(context.Background(), records("acme", "globex"), fn, opts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].Attempts != 1 || out[1].Profiles[0].Name != "globex" {
		t.Fatalf("unexpected results: %#v", out)
	}
	if !deadline.Load() {
		t.Fatalf("default request timeout was not applied")
	}
}
