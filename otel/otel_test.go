package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestConfigure_Stdout(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "false")
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")

	var out bytes.Buffer
	ctx := context.Background()
	require.NoError(t, Configure(ctx, WithService("vk_longpoll", "test"), WithOutput(&out)))
	assert.False(t, Disabled())

	_, span := otel.Tracer("test").Start(ctx, "groups.getLongPollServer")
	span.End()

	require.NoError(t, Shutdown(ctx))
	assert.Contains(t, out.String(), "groups.getLongPollServer")
	assert.Contains(t, out.String(), "vk_longpoll")

	// once
	assert.NoError(t, Configure(ctx))
	assert.NoError(t, Shutdown(ctx))
}
