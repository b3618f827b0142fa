package flowtree

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/petrijr/flowtree/pkg/api"
)

// RunningWorker runs w as a side effect of the rendering workflow; see
// api.RunningWorker.
func RunningWorker[P, S, O, T any](c *api.RenderContext[P, S, O], key string, w Worker[T], handler func(T) *api.Action[P, S, O]) {
	api.RunningWorker(c, key, w, handler)
}

// TimerWorker emits the current time once after d.
func TimerWorker(d time.Duration) Worker[time.Time] {
	return api.TimerWorker(d)
}

// TickerWorker emits the current time every d until cancelled.
func TickerWorker(d time.Duration) Worker[time.Time] {
	return api.TickerWorker(d)
}

// ChannelWorker emits every value received from ch until ch is closed.
func ChannelWorker[T any](ch <-chan T) Worker[T] {
	return api.ChannelWorker(ch)
}

// ParallelEffect runs all effects concurrently under one side-effect key.
// The first error cancels the others and is the one returned.
func ParallelEffect(effects ...SideEffect) SideEffect {
	return func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, e := range effects {
			g.Go(func() error {
				return e(gctx)
			})
		}
		return g.Wait()
	}
}

// SequenceEffect runs effects one after another, stopping at the first
// error or when ctx is cancelled.
func SequenceEffect(effects ...SideEffect) SideEffect {
	return func(ctx context.Context) error {
		for _, e := range effects {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// SleepEffect waits for d or until ctx is cancelled.
func SleepEffect(d time.Duration) SideEffect {
	return func(ctx context.Context) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}
