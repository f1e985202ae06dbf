package longpoll

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultWait is the server-side hold window
	DefaultWait = 25 * time.Second
	// DefaultSlack is added to Wait for the client-side deadline
	DefaultSlack = 10 * time.Second

	maxEnvelopeSize = 16 << 20
)

// Transport performs a single poll cycle.
type Transport interface {
	Poll(ctx context.Context, session Session) (*Envelope, error)
}

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)

// Executor issues `a_check` requests against the session server.
type Executor struct {
	// Client defaults to http.DefaultClient
	Client HTTPClient
	// Wait is the server-side hold window; rounded to seconds
	Wait time.Duration
	// Slack is added to Wait for the request deadline
	Slack time.Duration
	// Fields names the envelope members
	Fields Fields
}

var _ Transport = (*Executor)(nil)

func (c *Executor) wait() time.Duration {
	if c.Wait > 0 {
		return c.Wait
	}
	return DefaultWait
}

func (c *Executor) slack() time.Duration {
	if c.Slack > 0 {
		return c.Slack
	}
	return DefaultSlack
}

func (c *Executor) client() HTTPClient {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

// requestURL builds {server}?act=a_check&key=&ts=&wait=
func (c *Executor) requestURL(session Session) (string, error) {
	server := session.Server
	if !strings.Contains(server, "://") {
		server = "https://" + server
	}
	link, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	query := link.Query()
	query.Set("act", "a_check")
	query.Set("key", session.Key)
	query.Set("ts", session.Ts.String())
	query.Set("wait", strconv.Itoa(int(c.wait()/time.Second)))
	link.RawQuery = query.Encode()
	return link.String(), nil
}

func redactKey(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "[invalid url]"
	}
	query := u.Query()
	if query.Has("key") {
		query.Set("key", "***")
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Poll issues exactly one long poll request and parses the envelope.
// It never changes the given session; the caller applies Envelope.Ts.
func (c *Executor) Poll(ctx context.Context, session Session) (*Envelope, error) {
	if !session.IsValid() {
		return nil, &TransportError{Op: "request", Err: errors.New("invalid session")}
	}
	link, err := c.requestURL(session)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.wait()+c.slack())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}

	rsp, err := c.client().Do(req)
	if err != nil {
		if re, ok := err.(*url.Error); ok {
			// the query carries the session key
			re.URL = redactKey(re.URL)
		}
		return nil, &TransportError{Op: "request", Err: err}
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(rsp.Body, 4096))
		return nil, &TransportError{
			Op:     "status",
			Status: rsp.StatusCode,
			Err:    errors.New(http.StatusText(rsp.StatusCode)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(rsp.Body, maxEnvelopeSize))
	if err != nil {
		return nil, &TransportError{Op: "request", Err: errors.Wrap(err, "read body")}
	}

	env, err := decodeEnvelope(body, c.Fields.orDefault(), session.Ts)
	if err != nil {
		return nil, &TransportError{Op: "decode", Err: errors.Wrap(err, "envelope")}
	}
	return env, nil
}
