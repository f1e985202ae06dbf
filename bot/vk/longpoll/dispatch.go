package longpoll

import (
	"context"
	"log/slog"
	"sync"
)

// Handler consumes events.
type Handler interface {
	HandleEvent(ctx context.Context, event Event) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (fn HandlerFunc) HandleEvent(ctx context.Context, event Event) error {
	return fn(ctx, event)
}

// ErrorHandler decides about a consumer failure.
// A nil result means the error is handled and polling continues;
// otherwise the poller aborts with the returned error.
type ErrorHandler func(ctx context.Context, event Event, err error) error

// LogErrors is the default ErrorHandler: log and continue.
func LogErrors(log *slog.Logger) ErrorHandler {
	return func(ctx context.Context, event Event, err error) error {
		log.ErrorContext(ctx, "HANDLER",
			slog.String("type", event.Type),
			slog.String("event_id", event.EventID),
			slog.Any("error", err),
		)
		return nil
	}
}

// Dispatcher delivers events to the Handler one at a time, in order.
//
// With a zero queue size, Dispatch runs the handler on the caller's goroutine.
// Otherwise events pass through a bounded FIFO served by one worker;
// Dispatch blocks while the queue is full. Events are never dropped
// unless the ErrorHandler fails; the queued rest is discarded then.
type Dispatcher struct {
	handler Handler
	onError ErrorHandler

	queue chan Event
	done  chan struct{}

	mu    sync.Mutex
	fatal error
}

// NewDispatcher starts the worker if queue > 0.
// ctx is used for handler calls made by the worker; its cancellation
// does not stop delivery of already queued events. Call Close to drain.
func NewDispatcher(ctx context.Context, handler Handler, onError ErrorHandler, queue int) *Dispatcher {
	if onError == nil {
		onError = LogErrors(slog.Default())
	}
	d := &Dispatcher{
		handler: handler,
		onError: onError,
	}
	if queue > 0 {
		d.queue = make(chan Event, queue)
		d.done = make(chan struct{})
		go d.serve(context.WithoutCancel(ctx))
	}
	return d
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) error {
	err := d.handler.HandleEvent(ctx, event)
	if err == nil {
		return nil
	}
	return d.onError(ctx, event, err)
}

func (d *Dispatcher) serve(ctx context.Context) {
	defer close(d.done)
	for event := range d.queue {
		if d.failed() != nil {
			continue // drain
		}
		if err := d.deliver(ctx, event); err != nil {
			d.mu.Lock()
			d.fatal = err
			d.mu.Unlock()
		}
	}
}

func (d *Dispatcher) failed() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fatal
}

// Dispatch hands events over in order.
// It returns ctx.Err() if cancelled while waiting for queue space,
// or the error returned by the ErrorHandler.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		if d.queue == nil {
			if err := d.deliver(ctx, event); err != nil {
				return err
			}
			continue
		}
		if err := d.failed(); err != nil {
			return err
		}
		select {
		case d.queue <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return d.failed()
}

// Close waits for the queued events to be delivered.
// Dispatch must not be called after Close.
func (d *Dispatcher) Close() error {
	if d.queue != nil {
		close(d.queue)
		<-d.done
	}
	return d.failed()
}
