package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/webitel/vk_longpoll/bot/vk/longpoll"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{exchange, key, msg})
	return nil
}

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		event longpoll.Event
		want  string
	}{
		{longpoll.Event{Type: "message_new", GroupID: 42}, "vk.42.message_new"},
		{longpoll.Event{Type: "wall.post", GroupID: 1}, "vk.1.wall_post"},
		{longpoll.Event{GroupID: 7}, "vk.7.unknown"},
	}
	for _, tt := range tests {
		if got := RoutingKey(tt.event); got != tt.want {
			t.Errorf("RoutingKey(%+v) = %s; want %s", tt.event, got, tt.want)
		}
	}
}

func TestRabbit_HandleEvent(t *testing.T) {
	sink := NewRabbit(Config{}, nil)
	event := longpoll.Event{
		Type:    "message_new",
		GroupID: 42,
		EventID: "e1",
		Object:  json.RawMessage(`{"message":{"id":1}}`),
	}

	assert.ErrorIs(t, sink.HandleEvent(context.Background(), event), errNotOpened)

	pub := &fakePublisher{}
	sink.publish = pub
	require.True(t, sink.IsOpened())
	require.NoError(t, sink.HandleEvent(context.Background(), event))

	require.Len(t, pub.sent, 1)
	sent := pub.sent[0]
	assert.Equal(t, DefaultExchange, sent.exchange)
	assert.Equal(t, "vk.42.message_new", sent.key)
	assert.Equal(t, "e1", sent.msg.MessageId)
	assert.Equal(t, "message_new", sent.msg.Type)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.JSONEq(t, `{"type":"message_new","object":{"message":{"id":1}},"group_id":42,"event_id":"e1"}`, string(sent.msg.Body))

	pub.err = amqp.ErrClosed
	assert.ErrorIs(t, sink.HandleEvent(context.Background(), event), amqp.ErrClosed)

	assert.NoError(t, sink.Close())
	assert.False(t, sink.IsOpened())
}

func TestPublishing_NoEventID(t *testing.T) {
	msg, err := publishing(longpoll.Event{Type: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.MessageId)
}

func TestTee(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, nil))

	boom := errors.New("boom")
	calls := 0
	failing := longpoll.HandlerFunc(func(context.Context, longpoll.Event) error {
		calls++
		return boom
	})

	h := Tee(failing, Log(log), failing)
	err := h.HandleEvent(context.Background(), longpoll.Event{Type: "message_new", GroupID: 1, EventID: "e1"})

	assert.Equal(t, 2, calls)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, out.String(), "type=message_new")
	assert.Contains(t, out.String(), "event_id=e1")
}
