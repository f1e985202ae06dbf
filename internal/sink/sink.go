package sink

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/webitel/vk_longpoll/bot/vk/longpoll"
)

// Log writes every event to the logger.
func Log(log *slog.Logger) longpoll.Handler {
	return longpoll.HandlerFunc(func(ctx context.Context, event longpoll.Event) error {
		log.InfoContext(ctx, "EVENT",
			slog.Int64("group_id", event.GroupID),
			slog.String("type", event.Type),
			slog.String("event_id", event.EventID),
		)
		if log.Enabled(ctx, slog.LevelDebug) {
			log.DebugContext(ctx, "EVENT: "+event.Type,
				slog.String("object", string(event.Object)),
			)
		}
		return nil
	})
}

// Tee delivers the event to every handler.
// All handlers run even if some of them fail; errors are combined.
func Tee(handlers ...longpoll.Handler) longpoll.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return longpoll.HandlerFunc(func(ctx context.Context, event longpoll.Event) (err error) {
		for _, h := range handlers {
			err = multierr.Append(err, h.HandleEvent(ctx, event))
		}
		return err
	})
}
