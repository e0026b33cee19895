package tlrepo

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Run starts workers goroutines and calls fn in each of them with a private
// Local. The context passed to fn carries that Local, so GetContext works
// anywhere below fn. Each Local is closed when its fn returns.
//
// Run waits for every worker and returns the first error any of them
// returned; that error also cancels the context seen by the others.
//
// Example:
//
//	err := tlrepo.Run(ctx, 4, func(ctx context.Context, l *tlrepo.Local) error {
//	    repo, err := shared.Get(l)
//	    if err != nil {
//	        return err
//	    }
//	    head, err := repo.Head()
//	    ...
//	})
func Run(ctx context.Context, workers int, fn func(ctx context.Context, l *Local) error) error {
	if workers < 1 {
		return ErrInvalidWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() (err error) {
			l := NewLocal()
			defer func() {
				err = errors.Join(err, l.Close())
			}()
			return fn(WithLocal(gctx, l), l)
		})
	}
	return g.Wait()
}

// ForEach calls fn once per item, spreading items over workers goroutines
// started by Run. Items handled by the same worker share its Local, so a
// repository is opened at most once per worker however many items there are.
//
// Items are no longer handed out once a call fails or ctx is cancelled; the
// returned error is the first failure, or ctx.Err().
func ForEach[T any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, l *Local, item T) error) error {
	if workers < 1 {
		return ErrInvalidWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan T)

	g.Go(func() error {
		defer close(jobs)
		for _, item := range items {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case jobs <- item:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		return Run(gctx, workers, func(ctx context.Context, l *Local) error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case item, ok := <-jobs:
					if !ok {
						return nil
					}
					if err := fn(ctx, l, item); err != nil {
						return err
					}
				}
			}
		})
	})

	return g.Wait()
}
