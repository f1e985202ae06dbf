package vk

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	logs "github.com/webitel/vk_longpoll/log"
)

// TransportDump logs outbound requests and their responses at TRACE level.
type TransportDump struct {
	Transport http.RoundTripper
	WithBody  bool
	Log       *slog.Logger
}

var _ http.RoundTripper = (*TransportDump)(nil)

func (d *TransportDump) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

func (d *TransportDump) transport() http.RoundTripper {
	if d.Transport != nil {
		return d.Transport
	}
	return http.DefaultTransport
}

func trimDump(dump []byte) string {
	for len(dump) > 0 && dump[len(dump)-1] == '\n' {
		dump = dump[:len(dump)-1]
	}
	return string(dump)
}

func (d *TransportDump) RoundTrip(req *http.Request) (*http.Response, error) {
	var (
		ctx = req.Context()
		log = d.logger()
	)
	if !log.Enabled(ctx, logs.LevelTrace) {
		return d.transport().RoundTrip(req)
	}

	// region: DUMP Request
	log = log.With(slog.String("http.rpc.id", uuid.NewString()))
	dump, err := httputil.DumpRequestOut(req, d.WithBody && req.ContentLength > 0)
	if err != nil {
		log.Log(ctx, slog.LevelError, "httputil.DumpRequestOut", slog.Any("error", err))
	} else {
		log.Log(ctx, logs.LevelTrace, ">>>>> OUTBOUND >>>>>\n\n"+trimDump(dump)+"\n")
	}
	// endregion

	start := time.Now()
	rsp, err := d.transport().RoundTrip(req)
	if err != nil {
		log.Log(ctx, slog.LevelError, "<<<<< RESPONSE <<<<<",
			slog.Duration("spent", time.Since(start)),
			slog.Any("error", err),
		)
		return rsp, err
	}

	// region: DUMP Response
	dump, err = httputil.DumpResponse(rsp, d.WithBody)
	if err != nil {
		log.Log(ctx, slog.LevelError, "httputil.DumpResponse", slog.Any("error", err))
	} else {
		log.Log(ctx, logs.LevelTrace, "<<<<< RESPONSE <<<<<\n\n"+trimDump(dump)+"\n",
			slog.Duration("spent", time.Since(start)),
		)
	}
	// endregion
	return rsp, nil
}

// NewHTTPClient returns the client shared by the API and the long poll requests.
// Every request is an OpenTelemetry client span; trace dumps the traffic.
func NewHTTPClient(trace bool) *http.Client {
	var transport http.RoundTripper = http.DefaultTransport
	if trace {
		transport = &TransportDump{
			Transport: transport,
			WithBody:  true,
		}
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(transport,
			otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
				return req.Method + " " + req.URL.Path
			}),
		),
	}
}
