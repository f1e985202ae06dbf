package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"fatal", LevelFatal, false},
		{"debug-2", slog.LevelDebug - 2, false},
		{"info+1", slog.LevelInfo + 1, false},
		{"info+x", 0, true},
		{"verbose", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v; want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestZerologHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(ZerologHandler(
		zerolog.New(&buf), slog.LevelDebug,
	))

	log.Debug("visible", "n", 1)
	log.With("group_id", int64(42)).WithGroup("poll").Warn("retry",
		slog.String("server", "lp.vk.com"),
		slog.Any("error", errors.New("timeout")),
		slog.Group("session", slog.Int("ts", 100)),
	)
	log.Log(context.Background(), LevelTrace, "below level")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("records = %d; want 2\n%s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal(lines[1], &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	for key, want := range map[string]any{
		"level":           "warn",
		"message":         "retry",
		"group_id":        float64(42),
		"poll.server":     "lp.vk.com",
		"poll.error":      "timeout",
		"poll.session.ts": float64(100),
	} {
		if got := rec[key]; got != want {
			t.Errorf("record[%q] = %v; want %v", key, got, want)
		}
	}
}

func TestDeferJSON(t *testing.T) {
	calls := 0
	v := DeferValue(func() slog.Value {
		calls++
		return slog.StringValue("x")
	})
	_ = v.LogValue()
	_ = v.LogValue()
	if calls != 1 {
		t.Errorf("eval calls = %d; want 1", calls)
	}
	if got := DeferJSON(map[string]int{"ts": 1}).LogValue().String(); got != `{"ts":1}` {
		t.Errorf("DeferJSON = %s", got)
	}
}
