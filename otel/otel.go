package otel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	// Disable the OpenTelemetry SDK for all signals
	disabled = false
	// init ; once !
	initOnce sync.Once

	shutdown func(context.Context) error
	shutOnce sync.Once
)

// Disabled reports whether OpenTelemetry SDK is disabled for all signals.
func Disabled() bool {
	return disabled
}

// Shutdown OpenTelemetry SDK environment
func Shutdown(ctx context.Context) (err error) {
	shutOnce.Do(func() {
		if shutdown == nil {
			return
		}
		err = shutdown(ctx)
		shutdown = nil
	})
	return // err
}

type options struct {
	service string
	version string
	output  io.Writer
}

// Option of the SDK setup.
type Option func(*options)

// WithService sets service.name and service.version resource attributes.
func WithService(name, version string) Option {
	return func(o *options) {
		o.service, o.version = name, version
	}
}

// WithOutput of the stdout exporter; os.Stdout otherwise.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

func configure(ctx context.Context, opts []Option) (err error) {

	disabled, _ = strconv.ParseBool(
		os.Getenv("OTEL_SDK_DISABLED"),
	)

	if disabled {
		return //
	}

	conf := options{output: os.Stdout}
	for _, setup := range opts {
		setup(&conf)
	}

	// NOTE: logger used internally to opentelemetry.
	otel.SetLogger(logr.FromSlogHandler(
		slog.Default().Handler(),
	))

	var exporter sdktrace.SpanExporter
	switch name := strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_TRACES_EXPORTER"))); name {
	case "", "none":
		return nil // no-op provider
	case "stdout", "console":
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(conf.output),
		)
	default:
		err = fmt.Errorf("otel: OTEL_TRACES_EXPORTER=%s not supported", name)
	}
	if err != nil {
		return err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(conf.service),
			semconv.ServiceVersionKey.String(conf.version),
		),
	)
	if err != nil {
		return err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	shutdown = provider.Shutdown
	return nil
}

// Configure OpenTelemetry SDK components ...
func Configure(ctx context.Context, opts ...Option) (err error) {

	initOnce.Do(func() {
		err = configure(ctx, opts)
	})

	return err
}
