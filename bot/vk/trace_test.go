package vk

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logs "github.com/webitel/vk_longpoll/log"
)

func TestTransportDump(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ts":"1"}`)
	}))
	defer srv.Close()

	var out bytes.Buffer
	dump := &TransportDump{
		Transport: srv.Client().Transport,
		WithBody:  true,
		Log:       slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: logs.LevelTrace})),
	}
	client := &http.Client{Transport: dump}

	rsp, err := client.Get(srv.URL + "/lp?act=a_check")
	require.NoError(t, err)
	body, _ := io.ReadAll(rsp.Body)
	rsp.Body.Close()

	assert.Equal(t, `{"ts":"1"}`, string(body), "body must survive the dump")
	assert.Contains(t, out.String(), "OUTBOUND")
	assert.Contains(t, out.String(), "GET /lp?act=a_check")
	assert.Contains(t, out.String(), "http.rpc.id=")
	assert.Equal(t, 2, strings.Count(out.String(), "http.rpc.id="))
}

func TestTransportDump_Disabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	var out bytes.Buffer
	dump := &TransportDump{
		Transport: srv.Client().Transport,
		Log:       slog.New(slog.NewTextHandler(&out, nil)),
	}
	rsp, err := (&http.Client{Transport: dump}).Get(srv.URL)
	require.NoError(t, err)
	rsp.Body.Close()
	assert.Empty(t, out.String())
}

func TestNewHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	for _, trace := range []bool{false, true} {
		rsp, err := NewHTTPClient(trace).Get(srv.URL)
		require.NoError(t, err)
		rsp.Body.Close()
		assert.Equal(t, http.StatusNoContent, rsp.StatusCode)
	}
}
