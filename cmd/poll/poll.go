// Package poll runs the long poll consumer of one or more VK groups.
package poll

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/webitel/vk_longpoll/bot/vk"
	"github.com/webitel/vk_longpoll/bot/vk/longpoll"
	"github.com/webitel/vk_longpoll/cmd"
	"github.com/webitel/vk_longpoll/internal/sink"
	logs "github.com/webitel/vk_longpoll/log"
	"github.com/webitel/vk_longpoll/otel"
)

const (
	name  = "poll"
	usage = "Consume VK group events with Bots Long Poll API"
)

func Run(c *cli.Context) error {

	if c.Bool("help") {
		cli.ShowSubcommandHelp(c)
		return nil
	}

	config, err := configure(c)
	if err != nil {
		return err
	}
	if err = logs.Setup(config.LogFormat, config.LogLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = otel.Configure(ctx, otel.WithService(cmd.Name(), cmd.Version()))
	if err != nil {
		return err
	}
	defer func() {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otel.Shutdown(shutdown)
	}()

	log := slog.Default()
	log.Info("START",
		slog.String("version", cmd.Version()),
		slog.Any("groups", config.Groups),
	)
	err = serve(ctx, config, log)
	if err != nil {
		log.Error("STOP", slog.Any("error", err))
		return err
	}
	log.Info("STOP")
	return nil
}

// serve runs one poller per group until ctx is done or any of them fails.
func serve(ctx context.Context, config *Config, log *slog.Logger, opts ...vk.Option) (err error) {
	opts = append([]vk.Option{
		vk.WithHTTPClient(vk.NewHTTPClient(config.Trace)),
		vk.WithVersion(config.APIVersion),
		vk.WithLogger(log),
	}, opts...)
	client, err := vk.NewClient(config.Token, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, client.Close())
	}()

	handler, closeSink, err := newHandler(config, log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeSink())
	}()

	pollers, ctx := errgroup.WithContext(ctx)
	for _, groupID := range config.Groups {
		poller := client.Poller(groupID, handler, pollerOptions(config, client)...)
		pollers.Go(func() error {
			return poller.Run(ctx)
		})
	}
	return pollers.Wait()
}

func pollerOptions(config *Config, client *vk.Client) []longpoll.Option {
	backoff := longpoll.Backoff{Base: time.Second, Max: 30 * time.Second}
	opts := []longpoll.Option{
		longpoll.WithTransport(&longpoll.Executor{
			Client: client.API.Client,
			Wait:   config.Wait,
		}),
		longpoll.WithPolicy(config.Policy),
		longpoll.WithQueue(config.Queue),
		longpoll.WithMaxRetries(config.MaxRetries),
		longpoll.WithRetryBackoff(backoff),
	}
	if config.MaxRetries > 0 {
		backoff.Attempts = config.MaxRetries
		opts = append(opts, longpoll.WithNegotiateRetry(backoff))
	}
	return opts
}

// newHandler builds: ignore filter -> dedup -> log [+ amqp].
func newHandler(config *Config, log *slog.Logger) (longpoll.Handler, func() error, error) {
	var (
		handlers = []longpoll.Handler{sink.Log(log)}
		closer   = func() error { return nil }
	)
	if config.AMQP.URL != "" {
		rabbit := sink.NewRabbit(config.AMQP, log)
		if err := rabbit.Open(); err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, rabbit)
		closer = rabbit.Close
	}

	handler := sink.Tee(handlers...)
	if config.DedupTTL > 0 {
		handler = longpoll.Dedup(handler, config.DedupSize, config.DedupTTL)
	}
	router := longpoll.NewRouter().
		Ignore(config.Ignore...).
		Default(handler)
	return router, closer, nil
}

func init() {
	command := &cli.Command{
		Name:   name,
		Usage:  usage,
		Flags:  Flags(),
		Action: Run,
	}
	cmd.Register(command)
}
