package synchronizer

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// forEach runs fn for indexes 0..n-1 on at most s.workers goroutines. Once
// ctx is cancelled or fn returns an error no further index is started;
// calls already running finish on a context that ignores cancellation.
// started counts the indexes fn actually ran for.
func (s *Synchronizer) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) (started int, err error) {
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	detached := context.WithoutCancel(ctx)
	var (
		count   atomic.Int64
		stopped atomic.Bool
	)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil || stopped.Load() {
			break
		}
		// Go blocks while the pool is full, so the checks are repeated
		// once the goroutine is scheduled.
		i := i
		g.Go(func() error {
			if ctx.Err() != nil || stopped.Load() {
				return nil
			}
			count.Add(1)
			if err := fn(detached, i); err != nil {
				stopped.Store(true)
				return err
			}
			return nil
		})
	}
	err = g.Wait()
	return int(count.Load()), err
}
