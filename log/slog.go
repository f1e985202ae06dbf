package log

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	sfmt "github.com/samber/slog-formatter"
)

const (
	// LevelTrace is finer than slog.LevelDebug; HTTP dumps go here.
	LevelTrace = (slog.LevelDebug - 4)
	// LevelFatal is above slog.LevelError.
	LevelFatal = (slog.LevelError + 4)
)

func parseLevel(s string) (v slog.Level, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("log: level string %q: %w", s, err)
		}
	}()

	name := s
	offset := 0
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		name = s[:i]
		offset, err = strconv.Atoi(s[i:])
		if err != nil {
			return // info, err
		}
	}
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		v = LevelTrace
	case "DEBUG":
		v = slog.LevelDebug
	case "INFO":
		v = slog.LevelInfo
	case "WARN":
		v = slog.LevelWarn
	case "ERROR":
		v = slog.LevelError
	case "FATAL":
		v = LevelFatal
	default:
		err = errors.New("unknown name")
		return // info, err
	}
	v += slog.Level(offset)
	return // v, nil
}

// ParseLevel parses "trace", "debug", "info", "warn", "error" or "fatal"
// with an optional signed offset, e.g. "debug-2" or "info+1".
func ParseLevel(s string) (slog.Level, error) {
	return parseLevel(s)
}

func colorize(output *os.File) bool {
	on, _ := strconv.ParseBool(
		os.Getenv("VK_LOG_COLOR"),
	)
	if on {
		on = isatty.IsTerminal(
			output.Fd(),
		)
	}
	return on
}

func console(output *os.File, verbose slog.Leveler) slog.Handler {
	return sfmt.NewFormatterHandler(
		// error values render as {message,type,stacktrace}
		sfmt.ErrorFormatter("error"),
		// never print long-poll keys or access tokens
		sfmt.FormatByKey("key", redact),
		sfmt.FormatByKey("access_token", redact),
	)(
		tint.NewHandler(output, &tint.Options{
			AddSource:  false,
			Level:      verbose,
			TimeFormat: "Jan 02 15:04:05.000", // time.StampMilli,
			NoColor:    !colorize(output),
		}),
	)
}

func redact(v slog.Value) slog.Value {
	s := v.String()
	if len(s) <= 4 {
		return slog.StringValue("****")
	}
	return slog.StringValue(s[:4] + "****")
}

// NewHandler returns the console handler for the given format name.
// Known formats: "text" (default, tint), "zerolog" (console) and "json" (zerolog).
func NewHandler(format string, output *os.File, verbose slog.Leveler) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text", "tint", "console":
		return console(output, verbose), nil
	case "zerolog":
		return zerologHandler(output, verbose), nil
	case "json":
		return ZerologHandler(
			zerolog.New(output).With().Timestamp().Logger(),
			verbose,
		), nil
	}
	return nil, fmt.Errorf("log: format %q not supported", format)
}
