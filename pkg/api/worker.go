package api

import (
	"context"
	"time"
)

// Worker is a long-running task that emits values until ctx is cancelled or
// it returns.
type Worker[T any] func(ctx context.Context, emit func(T)) error

// RunningWorker runs w as a side effect keyed "worker:"+key and turns each
// emitted value into an action for the rendering workflow. As with any side
// effect, the worker keeps running while render passes keep declaring key.
func RunningWorker[P, S, O, T any](c *RenderContext[P, S, O], key string, w Worker[T], handler func(T) *Action[P, S, O]) {
	if w == nil || handler == nil {
		panic("flowtree: worker and handler must not be nil")
	}
	sink := c.ActionSink()
	c.RunningSideEffect("worker:"+key, func(ctx context.Context) error {
		return w(ctx, func(v T) {
			if ctx.Err() != nil {
				return
			}
			sink.Send(handler(v))
		})
	})
}

// TimerWorker emits the current time once after d.
func TimerWorker(d time.Duration) Worker[time.Time] {
	return func(ctx context.Context, emit func(time.Time)) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-timer.C:
			emit(t)
			return nil
		}
	}
}

// TickerWorker emits the current time every d until cancelled.
func TickerWorker(d time.Duration) Worker[time.Time] {
	return func(ctx context.Context, emit func(time.Time)) error {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case t := <-ticker.C:
				emit(t)
			}
		}
	}
}

// ChannelWorker emits every value received from ch until ch is closed.
func ChannelWorker[T any](ch <-chan T) Worker[T] {
	return func(ctx context.Context, emit func(T)) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-ch:
				if !ok {
					return nil
				}
				emit(v)
			}
		}
	}
}
