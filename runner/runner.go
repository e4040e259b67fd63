// Package runner fans out independent tasks across a bounded worker pool.
// Results come back in submission order regardless of completion order, and
// one task's failure never cancels its siblings.
package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	campaigner "github.com/spetersoncode/campaigner"
)

// DefaultMaxWorkers bounds concurrency when the caller passes zero.
const DefaultMaxWorkers = 3

// Task pairs an asset spec with the work producing its value.
type Task[T any] struct {
	Spec campaigner.AssetSpec
	Run  func(ctx context.Context) (T, error)
}

// Result is the outcome of one task, at the same index as its input.
type Result[T any] struct {
	Spec  campaigner.AssetSpec
	Value T
	Err   error
}

// RunAll executes every task with at most maxWorkers running at once and
// returns one result per task in input order. Task failures are recorded in
// the corresponding Result, never returned from RunAll; only full context
// cancellation surfaces as an error.
func RunAll[T any](ctx context.Context, maxWorkers int, tasks []Task[T]) ([]Result[T], error) {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	results := make([]Result[T], len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, task := range tasks {
		// Each goroutine writes only its own slot.
		g.Go(func() error {
			results[i].Spec = task.Spec
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = task.Run(gctx)
			return nil
		})
	}

	// Goroutines never return errors, so Wait only reflects ctx here.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Failed returns the results that carry an error.
func Failed[T any](results []Result[T]) []Result[T] {
	var out []Result[T]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
