package longpoll

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	logs "github.com/webitel/vk_longpoll/log"
)

// State of the Poller.
type State int32

const (
	Uninitialized State = iota
	Negotiating
	Polling
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Negotiating:
		return "negotiating"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// DefaultMaxRetries of a failed poll request before renegotiation.
const DefaultMaxRetries = 3

// ErrRunning is returned by Run when the poller is already running.
var ErrRunning = errors.New("longpoll: poller is already running")

// Poller runs the long poll loop of a single group.
// It is the only owner of its Session; pollers of different groups share nothing.
type Poller struct {
	id        string
	groupID   int64
	negotiate Negotiator
	handler   Handler
	opts      options
	state     atomic.Int32
}

type options struct {
	log         *slog.Logger
	transport   Transport
	policy      Policy
	queue       int
	onError     ErrorHandler
	maxRetries  int
	backoff     RetryPolicy
	renegotiate RetryPolicy
	observe     func(Session, Action)
}

// Option configures a Poller.
type Option func(*options)

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithTransport replaces the default Executor.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithPolicy sets the failure code table.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithQueue enables the queued dispatch mode with the given capacity.
// Zero (default) delivers events on the polling goroutine.
//
// Queued events count as handed over: the cursor advances past them before
// the handler runs. Once the ErrorHandler fails, the rest of the queue is
// discarded and Run returns the *AbortError.
func WithQueue(size int) Option {
	return func(o *options) { o.queue = size }
}

// WithErrorHandler sets the consumer error policy; LogErrors otherwise.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) { o.onError = h }
}

// WithMaxRetries of a failed poll request before the session is renegotiated.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = n }
}

// WithRetryBackoff sets delays between failed poll requests.
func WithRetryBackoff(p RetryPolicy) Option {
	return func(o *options) { o.backoff = p }
}

// WithNegotiateRetry lets the poller retry a failed negotiation.
// Without it NegotiationError is returned from Run at once.
func WithNegotiateRetry(p RetryPolicy) Option {
	return func(o *options) { o.renegotiate = p }
}

// WithObserver is called after every classified envelope
// with the session the request was issued with.
func WithObserver(fn func(Session, Action)) Option {
	return func(o *options) { o.observe = fn }
}

// New returns a Poller for the group.
func New(groupID int64, negotiate Negotiator, handler Handler, opts ...Option) *Poller {
	p := &Poller{
		id:        uuid.NewString(),
		groupID:   groupID,
		negotiate: negotiate,
		handler:   handler,
		opts: options{
			maxRetries: DefaultMaxRetries,
			backoff:    Backoff{Base: time.Second, Max: 30 * time.Second},
		},
	}
	for _, setup := range opts {
		setup(&p.opts)
	}
	if p.opts.log == nil {
		p.opts.log = slog.Default()
	}
	p.opts.log = p.opts.log.With(
		slog.Int64("group_id", groupID),
		slog.String("poller", p.id),
	)
	if p.opts.transport == nil {
		p.opts.transport = &Executor{}
	}
	if p.opts.policy == nil {
		p.opts.policy = DefaultPolicy()
	}
	if p.opts.onError == nil {
		p.opts.onError = LogErrors(p.opts.log)
	}
	return p
}

// GroupID of the poller.
func (p *Poller) GroupID() int64 {
	return p.groupID
}

// State reports the current state; safe for concurrent use.
func (p *Poller) State() State {
	return State(p.state.Load())
}

func (p *Poller) setState(s State) {
	if prev := State(p.state.Swap(int32(s))); prev != s {
		p.opts.log.Debug("STATE",
			slog.String("from", prev.String()),
			slog.String("to", s.String()),
		)
	}
}

// Run polls until ctx is cancelled or the poller aborts.
//
// It returns nil on cancellation, *AbortError on an unrecoverable envelope or
// consumer failure, and *NegotiationError when a session cannot be obtained.
// A stopped poller may be started again.
func (p *Poller) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(Uninitialized), int32(Negotiating)) &&
		!p.state.CompareAndSwap(int32(Stopped), int32(Negotiating)) {
		return ErrRunning
	}
	defer p.setState(Stopped)

	dispatch := NewDispatcher(ctx, p.handler, p.opts.onError, p.opts.queue)
	err := p.loop(ctx, dispatch)
	if re := dispatch.Close(); err == nil && re != nil {
		err = &AbortError{Reason: "handler", Err: re}
	}

	if err != nil {
		p.opts.log.Error("STOPPED", slog.Any("error", err))
		return err
	}
	p.opts.log.Info("STOPPED")
	return nil
}

func (p *Poller) loop(ctx context.Context, dispatch *Dispatcher) error {
	log := p.opts.log
	var (
		session  Session
		ready    bool
		keepTs   bool
		failures int
	)

	for {
		// cancellation is observed before every request
		if ctx.Err() != nil {
			return nil
		}

		if !ready {
			p.setState(Negotiating)
			next, err := p.negotiateSession(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if keepTs {
				next.Ts = session.Ts
			}
			log.Info("SESSION",
				slog.String("server", next.Server),
				slog.String("ts", next.Ts.String()),
				slog.Bool("keep_ts", keepTs),
			)
			session, ready, keepTs = next, true, false
			p.setState(Polling)
			continue
		}

		env, err := p.opts.transport.Poll(ctx, session)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			if failures > p.opts.maxRetries {
				log.Warn("POLL: retries exhausted; renegotiate",
					slog.Int("failures", failures),
					slog.Any("error", err),
				)
				failures = 0
				ready, keepTs = false, true
				continue
			}
			delay, _ := p.opts.backoff.Next(failures, err)
			log.Warn("POLL",
				slog.Int("attempt", failures),
				slog.Duration("backoff", delay),
				slog.Any("error", err),
			)
			if !sleep(ctx, delay) {
				return nil
			}
			continue
		}
		failures = 0

		act := p.opts.policy.Classify(env)
		log.Log(ctx, logs.LevelTrace, "ENVELOPE",
			slog.String("action", act.String()),
			slog.Any("envelope", logs.DeferJSON(env)),
		)
		if p.opts.observe != nil {
			p.opts.observe(session, act)
		}

		if act.Kind != Abort && len(env.Updates) > 0 {
			// the cursor moves once events are delivered, or enqueued with WithQueue
			if err := dispatch.Dispatch(ctx, env.Updates); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return &AbortError{Reason: "handler", Err: err}
			}
		}

		switch act.Kind {
		case Advance:
			session = session.WithTs(act.Ts)
		case ResyncTs:
			log.Info("RESYNC",
				slog.String("from", session.Ts.String()),
				slog.String("to", act.Ts.String()),
			)
			session = session.WithTs(act.Ts)
		case Renegotiate:
			log.Info("RENEGOTIATE",
				slog.String("reason", act.Reason),
				slog.Bool("keep_ts", act.KeepTs),
			)
			ready, keepTs = false, act.KeepTs
		default:
			return &AbortError{Reason: act.Reason, Code: env.Failed}
		}
	}
}

// negotiateSession asks for a new session, retrying per the negotiation policy.
func (p *Poller) negotiateSession(ctx context.Context) (Session, error) {
	for attempt := 1; ; attempt++ {
		session, err := p.negotiate.Negotiate(ctx, p.groupID)
		if err == nil {
			if !session.IsValid() {
				err = errors.New("empty server or key")
			} else {
				return session, nil
			}
		}
		var re *NegotiationError
		if !errors.As(err, &re) {
			re = &NegotiationError{GroupID: p.groupID, Err: err}
		}
		if p.opts.renegotiate == nil || ctx.Err() != nil {
			return Session{}, re
		}
		delay, ok := p.opts.renegotiate.Next(attempt, re)
		if !ok {
			return Session{}, re
		}
		p.opts.log.Warn("NEGOTIATE",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.Any("error", re.Err),
		)
		if !sleep(ctx, delay) {
			return Session{}, ctx.Err()
		}
	}
}
