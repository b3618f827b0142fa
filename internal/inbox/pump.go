package inbox

import (
	"context"
	"errors"
	"log/slog"
)

// Pump dequeues events from q and hands them to deliver until ctx is
// cancelled. Delivery errors are logged and the event is dropped.
func Pump(ctx context.Context, q Inbox, deliver func(Event) error, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		ev, err := q.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if err := deliver(*ev); err != nil {
			logger.Warn("inbox_event_dropped",
				slog.Int64("id", ev.ID),
				slog.String("event", ev.Name),
				slog.Any("error", err),
			)
			continue
		}
		logger.Debug("inbox_event_delivered", slog.Int64("id", ev.ID), slog.String("event", ev.Name))
	}
}
