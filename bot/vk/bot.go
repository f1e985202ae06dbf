// Package vk is a thin VK API client for group bots: method groups used by
// the long poll consumer, a request hook chain and the update records.
package vk

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SevereCloud/vksdk/v2/api"
	"github.com/micro/micro/v3/service/errors"
	"go.uber.org/multierr"

	"github.com/webitel/vk_longpoll/bot/vk/longpoll"
)

const (
	provider = "vk"
	// DefaultVersion of the VK API
	DefaultVersion = "5.199"
)

// Client of the VK API on behalf of a group.
type Client struct {
	// API is the underlying vksdk client.
	// Its Handler is owned by the Client.
	API *api.VK

	Groups   *Groups
	Messages *Messages

	log   *slog.Logger
	hooks []Hook
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient shares the client with the long poll executor.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.API.Client = client
		}
	}
}

// WithVersion of the VK API; DefaultVersion otherwise.
func WithVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.API.Version = v
		}
	}
}

// WithMethodURL overrides https://api.vk.com/method/
func WithMethodURL(link string) Option {
	return func(c *Client) {
		if link != "" {
			c.API.MethodURL = link
		}
	}
}

// WithHooks appends hooks after the built-in ones.
func WithHooks(hooks ...Hook) Option {
	return func(c *Client) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient returns a Client authorized with the group access token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.BadRequest(
			"vk.client.token.required",
			"vk: group access token required",
		)
	}
	c := &Client{
		API:   api.NewVK(token),
		log:   slog.Default(),
		hooks: DefaultHooks(),
	}
	c.API.Version = DefaultVersion
	for _, setup := range opts {
		setup(c)
	}
	c.log = c.log.With(slog.String("provider", provider))
	c.API.Handler = c.handle
	c.Groups = &Groups{c: c}
	c.Messages = &Messages{c: c}
	return c, nil
}

// handle runs the hook chain around the vksdk request.
func (c *Client) handle(method string, sliceParams ...api.Params) (api.Response, error) {
	params := make(api.Params)
	for _, p := range sliceParams {
		for key, value := range p {
			params[key] = value
		}
	}

	for _, hook := range c.hooks {
		if err := hook.BeforeRequest(method, params); err != nil {
			c.log.Warn("VK: "+method, slog.Any("error", err))
			return api.Response{}, err
		}
	}

	start := time.Now()
	rsp, err := c.API.DefaultHandler(method, params)
	spent := time.Since(start)

	for _, hook := range c.hooks {
		err = hook.AfterRequest(method, params, &rsp, err)
	}

	if err != nil {
		c.log.Warn("VK: "+method,
			slog.Duration("spent", spent),
			slog.Any("error", err),
		)
		return rsp, err
	}
	c.log.Debug("VK: "+method,
		slog.Duration("spent", spent),
	)
	return rsp, nil
}

// Poller returns a long poll consumer of the group events.
// Sessions come from groups.getLongPollServer; the poll requests
// share the Client's HTTP client.
func (c *Client) Poller(groupID int64, handler longpoll.Handler, opts ...longpoll.Option) *longpoll.Poller {
	opts = append([]longpoll.Option{
		longpoll.WithLogger(c.log),
		longpoll.WithTransport(&longpoll.Executor{Client: c.API.Client}),
	}, opts...)
	return longpoll.New(groupID, c.Groups, handler, opts...)
}

// Close releases hooks holding resources and idle connections.
func (c *Client) Close() (err error) {
	for _, hook := range c.hooks {
		if closer, ok := hook.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	if c.API.Client != nil {
		c.API.Client.CloseIdleConnections()
	}
	return err
}

// String "vk" provider's name
func (c *Client) String() string {
	return provider
}
