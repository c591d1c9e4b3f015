// Package join runs groups of independent calls concurrently and waits for
// them. All aborts on the first failure, Settle never does.
package join

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of concurrent work
type Task func(ctx context.Context) error

// All runs every task concurrently and returns the first error. The context
// handed to the tasks is cancelled as soon as one of them fails.
func All(ctx context.Context, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			return task(gctx)
		})
	}
	return g.Wait()
}

// Settle runs every task concurrently and waits for all of them. errs[i] is
// the outcome of tasks[i].
func Settle(ctx context.Context, tasks ...Task) []error {
	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = task(ctx)
		}()
	}
	wg.Wait()
	return errs
}

// Fallback adapts fn into a Task that stores its result in dst, or stores
// fallback and reports the error when fn fails.
func Fallback[T any](dst *T, fallback T, fn func(ctx context.Context) (T, error)) Task {
	return func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			*dst = fallback
			return err
		}
		*dst = v
		return nil
	}
}
