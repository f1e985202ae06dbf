package longpoll

import "context"

// Router is a Handler that selects the handler by event type.
type Router struct {
	routes   map[string]Handler
	fallback Handler
}

var _ Handler = (*Router)(nil)

func NewRouter() *Router {
	return &Router{routes: make(map[string]Handler)}
}

// On registers the handler for the event type.
func (r *Router) On(eventType string, h Handler) *Router {
	r.routes[eventType] = h
	return r
}

// Default sets the handler for types without route.
func (r *Router) Default(h Handler) *Router {
	r.fallback = h
	return r
}

// Ignore drops the given types; they do not reach Default either.
func (r *Router) Ignore(eventTypes ...string) *Router {
	for _, eventType := range eventTypes {
		r.routes[eventType] = nop
	}
	return r
}

var nop = HandlerFunc(func(context.Context, Event) error { return nil })

func (r *Router) HandleEvent(ctx context.Context, event Event) error {
	if h, ok := r.routes[event.Type]; ok {
		return h.HandleEvent(ctx, event)
	}
	if r.fallback != nil {
		return r.fallback.HandleEvent(ctx, event)
	}
	return nil
}
