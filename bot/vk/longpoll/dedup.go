package longpoll

import (
	"context"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mitchellh/hashstructure"
)

// dedup skips events already delivered within the TTL window.
type dedup struct {
	next Handler
	seen *lru.LRU[string, struct{}]
}

// Dedup wraps next so that a redelivered event is handled once.
// Events are keyed by event_id, or by a structural hash when it is absent.
// Only successfully handled events are remembered.
func Dedup(next Handler, size int, ttl time.Duration) Handler {
	if size <= 0 {
		size = 4096
	}
	return &dedup{
		next: next,
		seen: lru.NewLRU[string, struct{}](size, nil, ttl),
	}
}

func (d *dedup) HandleEvent(ctx context.Context, event Event) error {
	key, err := eventKey(event)
	if err != nil {
		return d.next.HandleEvent(ctx, event)
	}
	if d.seen.Contains(key) {
		return nil
	}
	if err = d.next.HandleEvent(ctx, event); err != nil {
		return err
	}
	d.seen.Add(key, struct{}{})
	return nil
}

func eventKey(event Event) (string, error) {
	if event.EventID != "" {
		return "id:" + event.EventID, nil
	}
	sum, err := hashstructure.Hash(struct {
		Type    string
		GroupID int64
		Object  string
	}{
		Type:    event.Type,
		GroupID: event.GroupID,
		Object:  string(event.Object),
	}, nil)
	if err != nil {
		return "", err
	}
	return "h:" + strconv.FormatUint(sum, 16), nil
}
