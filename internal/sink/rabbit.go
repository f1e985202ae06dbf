// Package sink forwards long poll events out of the process.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"

	"github.com/webitel/vk_longpoll/bot/vk/longpoll"
)

// DefaultExchange for the VK events.
const DefaultExchange = "vk.events"

type Config struct {
	URL      string
	Exchange string
}

// Publisher is the part of *amqp.Channel used by Rabbit.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Rabbit publishes events to a topic exchange
// with the `vk.{group_id}.{type}` routing key.
type Rabbit struct {
	config Config
	log    *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	publish Publisher
}

var _ longpoll.Handler = (*Rabbit)(nil)

var errNotOpened = errors.New("sink: connection not opened")

func NewRabbit(config Config, log *slog.Logger) *Rabbit {
	if config.Exchange == "" {
		config.Exchange = DefaultExchange
	}
	if log == nil {
		log = slog.Default()
	}
	return &Rabbit{
		config: config,
		log:    log.With(slog.String("exchange", config.Exchange)),
	}
}

// Open dials the broker and declares the exchange.
func (c *Rabbit) Open() error {
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return err
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	err = channel.ExchangeDeclare(
		c.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		_ = conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn, c.channel, c.publish = conn, channel, channel
	c.mu.Unlock()

	c.log.Info("AMQP: OPENED")
	return nil
}

func (c *Rabbit) IsOpened() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.publish != nil
}

// Close the channel and the connection.
func (c *Rabbit) Close() (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		err = multierr.Append(err, c.channel.Close())
	}
	if c.conn != nil {
		err = multierr.Append(err, c.conn.Close())
	}
	c.conn, c.channel, c.publish = nil, nil, nil
	return err
}

// HandleEvent publishes the event.
func (c *Rabbit) HandleEvent(ctx context.Context, event longpoll.Event) error {
	c.mu.RLock()
	publish := c.publish
	c.mu.RUnlock()
	if publish == nil {
		return errNotOpened
	}

	msg, err := publishing(event)
	if err != nil {
		return err
	}
	return publish.PublishWithContext(
		ctx,
		c.config.Exchange,
		RoutingKey(event),
		false, // mandatory
		false, // immediate
		msg,
	)
}

// RoutingKey is `vk.{group_id}.{type}`.
func RoutingKey(event longpoll.Event) string {
	typ := event.Type
	if typ == "" {
		typ = "unknown"
	}
	return "vk." + strconv.FormatInt(event.GroupID, 10) + "." + strings.ReplaceAll(typ, ".", "_")
}

func publishing(event longpoll.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	id := event.EventID
	if id == "" {
		id = uuid.NewString()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Type:         event.Type,
		Timestamp:    time.Now().UTC(),
		AppId:        "vk_longpoll",
		Body:         body,
	}, nil
}
