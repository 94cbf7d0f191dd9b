package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"dario.cat/mergo"
	"golang.org/x/time/rate"

	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

type FailurePolicy int

const (
	// FailurePolicyFailFast aborts the batch on the first company that fails.
	FailurePolicyFailFast FailurePolicy = iota
	// FailurePolicyPartialOutput records per-company errors and keeps going.
	FailurePolicyPartialOutput
)

type Options struct {
	Workers        int
	MaxRetries     int
	RequestTimeout time.Duration

	// RateLimitRPS is a global limit across all workers. Set to <=0 to disable.
	RateLimitRPS float64

	FailurePolicy FailurePolicy

	BackoffInitial time.Duration
	BackoffMax     time.Duration
	// BackoffJitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	BackoffJitterFrac float64
}

// CompanyResult is the search outcome for one uploaded company.
type CompanyResult struct {
	Record   profiles.UploadRecord
	Profiles []profiles.ProfileResult
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// DefaultOptions fills every field a caller leaves at zero.
var DefaultOptions = Options{
	Workers:        4,
	RequestTimeout: 60 * time.Second,
	BackoffInitial: 200 * time.Millisecond,
	BackoffMax:     2 * time.Second,
}

func (o Options) withDefaults() (Options, error) {
	o.Workers = max(o.Workers, 0)
	o.MaxRetries = max(o.MaxRetries, 0)
	o.RequestTimeout = max(o.RequestTimeout, 0)
	o.BackoffInitial = max(o.BackoffInitial, 0)
	o.BackoffMax = max(o.BackoffMax, 0)
	o.BackoffJitterFrac = max(o.BackoffJitterFrac, 0)
	if err := mergo.Merge(&o, DefaultOptions); err != nil {
		return o, fmt.Errorf("worker options: %w", err)
	}
	return o, nil
}

// SearchAll runs searcher over every record and returns results in input order.
//
// onDone, when set, observes results in completion order from a single goroutine.
func SearchAll(
	ctx context.Context,
	records []profiles.UploadRecord,
	searcher core.Searcher,
	opts Options,
	onDone func(CompanyResult),
) ([]CompanyResult, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	type job struct {
		idx int
		rec profiles.UploadRecord
	}
	type completion struct {
		idx int
		res CompanyResult
	}

	jobs := make(chan job)
	done := make(chan completion, opts.Workers)
	out := make([]CompanyResult, len(records))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if runCtx.Err() != nil {
					return
				}
				res := searchWithRetry(runCtx, j.rec, searcher, limiter, opts)
				if res.Err != nil && opts.FailurePolicy == FailurePolicyFailFast {
					fail(res.Err)
				}
				select {
				case done <- completion{idx: j.idx, res: res}:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, rec := range records {
			select {
			case jobs <- job{idx: i, rec: rec}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	for c := range done {
		out[c.idx] = c.res
		if onDone != nil {
			onDone(c.res)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func searchWithRetry(
	ctx context.Context,
	rec profiles.UploadRecord,
	searcher core.Searcher,
	limiter *rate.Limiter,
	opts Options,
) CompanyResult {
	start := time.Now()
	res := CompanyResult{Record: rec}
	for attempt := 0; ; attempt++ {
		res.Attempts = attempt + 1
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				res.Err = err
				break
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, opts.RequestTimeout)
		found, err := searcher.Search(reqCtx, rec)
		cancel()
		if err == nil {
			res.Profiles = found
			res.Err = nil
			break
		}
		res.Err = err
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			res.Err = ctx.Err()
			break
		}
		if !isTransient(err) || attempt >= opts.MaxRetries {
			break
		}

		t := time.NewTimer(backoffSleep(opts.BackoffInitial, opts.BackoffMax, opts.BackoffJitterFrac, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			res.Err = ctx.Err()
			res.Elapsed = time.Since(start)
			return res
		}
	}
	res.Elapsed = time.Since(start)
	return res
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *core.TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func backoffSleep(initial, ceiling time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := initial
	for i := 0; i < attempt && sleep < ceiling; i++ {
		sleep *= 2
		if sleep > ceiling {
			sleep = ceiling
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
