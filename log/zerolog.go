package log

import (
	"context"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
)

// zerologBridge is a slog.Handler writing through zerolog.
type zerologBridge struct {
	log   zerolog.Logger
	level slog.Leveler
	// pre-bound attrs, already prefixed
	attrs []slog.Attr
	group string
}

var _ slog.Handler = (*zerologBridge)(nil)

func zerologHandler(output *os.File, verbose slog.Leveler) slog.Handler {
	return &zerologBridge{
		log: zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			NoColor:    !colorize(output),
			TimeFormat: "Jan 02 15:04:05.000",
		}),
		level: verbose,
	}
}

// ZerologHandler returns slog.Handler that writes records to the given zerolog.Logger.
func ZerologHandler(log zerolog.Logger, verbose slog.Leveler) slog.Handler {
	if verbose == nil {
		verbose = slog.LevelInfo
	}
	return &zerologBridge{log: log, level: verbose}
}

func zerologLevel(v slog.Level) zerolog.Level {
	switch {
	case v < slog.LevelDebug:
		return zerolog.TraceLevel
	case v < slog.LevelInfo:
		return zerolog.DebugLevel
	case v < slog.LevelWarn:
		return zerolog.InfoLevel
	case v < slog.LevelError:
		return zerolog.WarnLevel
	case v < LevelFatal:
		return zerolog.ErrorLevel
	}
	// NOTE: WithLevel(Fatal) does not os.Exit
	return zerolog.FatalLevel
}

func (h *zerologBridge) Enabled(_ context.Context, v slog.Level) bool {
	return v >= h.level.Level()
}

func (h *zerologBridge) Handle(_ context.Context, rec slog.Record) error {
	e := h.log.WithLevel(zerologLevel(rec.Level))
	if e == nil {
		return nil // disabled
	}
	if !rec.Time.IsZero() {
		e = e.Time(zerolog.TimestampFieldName, rec.Time)
	}
	for _, att := range h.attrs {
		e = appendAttr(e, "", att)
	}
	rec.Attrs(func(att slog.Attr) bool {
		e = appendAttr(e, h.group, att)
		return true
	})
	e.Msg(rec.Message)
	return nil
}

func (h *zerologBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, att := range attrs {
		att.Key = h.group + att.Key
		h2.attrs = append(h2.attrs, att)
	}
	return &h2
}

func (h *zerologBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = h.group + name + "."
	return &h2
}

func appendAttr(e *zerolog.Event, prefix string, att slog.Attr) *zerolog.Event {
	att.Value = att.Value.Resolve()
	if att.Equal(slog.Attr{}) {
		return e
	}
	key := prefix + att.Key
	switch v := att.Value; v.Kind() {
	case slog.KindString:
		return e.Str(key, v.String())
	case slog.KindInt64:
		return e.Int64(key, v.Int64())
	case slog.KindUint64:
		return e.Uint64(key, v.Uint64())
	case slog.KindFloat64:
		return e.Float64(key, v.Float64())
	case slog.KindBool:
		return e.Bool(key, v.Bool())
	case slog.KindDuration:
		return e.Dur(key, v.Duration())
	case slog.KindTime:
		return e.Time(key, v.Time())
	case slog.KindGroup:
		if att.Key != "" {
			prefix = key + "."
		}
		for _, sub := range v.Group() {
			e = appendAttr(e, prefix, sub)
		}
		return e
	default:
		if err, is := v.Any().(error); is {
			return e.AnErr(key, err)
		}
		return e.Interface(key, v.Any())
	}
}
