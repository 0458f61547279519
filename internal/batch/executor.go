// Package batch also implements the two execution modes a batch file runs
// under (spec.md §4.7 "dependent" and §4.8 "independent").
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// RunResult is what one operation's execution produced, abstracted away from
// the concrete transport so this package stays decoupled from executor/cmdgen.
type RunResult struct {
	Body       []byte
	StatusCode int
}

// Runner executes a single resolved operation. Implementations build the
// OperationCall from the cached spec, run it through the executor.Executor,
// and report the outcome. op.Args arrive already interpolated against vars.
type Runner func(ctx context.Context, op Operation, vars *Store) (*RunResult, error)

// Outcome is the per-operation result of a batch run.
type Outcome struct {
	Index      int
	ID         string
	Success    bool
	Skipped    bool
	Error      error
	StatusCode int
}

// RunDependent executes ops sequentially in dependency order. The first
// failure halts execution; every not-yet-run operation is reported as
// skipped (spec.md §4.7 "atomic: halts on first failure").
func RunDependent(ctx context.Context, ops []Operation, store *Store, run Runner) ([]Outcome, error) {
	order, err := ResolveExecutionOrder(ops)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(ops))
	for i := range outcomes {
		outcomes[i] = Outcome{Index: i, ID: ops[i].ID}
	}

	failed := false
	for _, idx := range order {
		op := ops[idx]
		if failed {
			outcomes[idx].Skipped = true
			outcomes[idx].Error = apperr.New(apperr.Http, "Skipped due to prior failure")
			continue
		}

		args, err := store.InterpolateAll(op.Args)
		if err != nil {
			outcomes[idx] = Outcome{Index: idx, ID: op.ID, Error: err}
			failed = true
			continue
		}
		op.Args = args

		result, err := run(ctx, op, store)
		if err != nil {
			outcomes[idx] = Outcome{Index: idx, ID: op.ID, Error: err}
			failed = true
			continue
		}

		if errs := ApplyCaptures(result.Body, op, store); len(errs) > 0 {
			outcomes[idx] = Outcome{Index: idx, ID: op.ID, Error: errs[0], StatusCode: result.StatusCode}
			failed = true
			continue
		}
		outcomes[idx] = Outcome{Index: idx, ID: op.ID, Success: true, StatusCode: result.StatusCode}
	}

	return outcomes, nil
}

// ApplyCaptures stores every field named in op.Capture/op.CaptureAppend into
// store, extracted from body (spec.md §4.10). Extraction errors are
// collected into the returned slice rather than stopping at the first one;
// RunDependent treats any of them as the operation's failure, while
// RunIndependent ignores them.
func ApplyCaptures(body []byte, op Operation, store *Store) []error {
	var errs []error
	for name, expr := range op.Capture {
		v, err := Extract(body, expr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		store.Set(name, v)
	}
	for name, expr := range op.CaptureAppend {
		v, err := Extract(body, expr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		store.Append(name, v)
	}
	return errs
}

// IndependentOptions configures concurrent batch dispatch.
type IndependentOptions struct {
	Concurrency     int
	RateLimiter     *RateLimiter
	ContinueOnError bool
}

// RunIndependent executes ops concurrently, bounded by opts.Concurrency and
// optionally throttled by opts.RateLimiter. Unlike dependent mode there is no
// ordering or fail-fast: every operation runs unless ctx is canceled, and
// opts.ContinueOnError only affects the final aggregate error (spec.md §4.8).
func RunIndependent(ctx context.Context, ops []Operation, store *Store, run Runner, opts IndependentOptions) ([]Outcome, error) {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	outcomes := make([]Outcome, len(ops))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, op := range ops {
		i, op := i, op
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := opts.RateLimiter.Wait(ctx); err != nil {
				outcomes[i] = Outcome{Index: i, ID: op.ID, Error: err}
				return
			}

			args, err := store.InterpolateAll(op.Args)
			if err != nil {
				outcomes[i] = Outcome{Index: i, ID: op.ID, Error: err}
				return
			}
			op.Args = args

			result, err := run(ctx, op, store)
			if err != nil {
				outcomes[i] = Outcome{Index: i, ID: op.ID, Error: err}
				return
			}

			mu.Lock()
			ApplyCaptures(result.Body, op, store)
			mu.Unlock()

			outcomes[i] = Outcome{Index: i, ID: op.ID, Success: true, StatusCode: result.StatusCode}
		}()
	}
	wg.Wait()

	failures := 0
	for _, o := range outcomes {
		if !o.Success {
			failures++
		}
	}
	if failures > 0 && !opts.ContinueOnError {
		return outcomes, apperr.New(apperr.Http, fmt.Sprintf("%d of %d operations failed", failures, len(ops)))
	}
	return outcomes, nil
}
