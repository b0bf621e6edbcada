package telemetry

import (
	"context"
	"testing"

	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/stretchr/testify/require"
)

func TestInitTracing(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		shutdown, err := InitTracing(ctx, config.TracingConfig{Enabled: false}, "test")
		require.NoError(t, err)
		require.NoError(t, shutdown(ctx))
	})

	t.Run("none exporter", func(t *testing.T) {
		shutdown, err := InitTracing(ctx, config.TracingConfig{
			Enabled: true, Exporter: "none", ServiceName: "smartevent", SampleRate: 0.5,
		}, "test")
		require.NoError(t, err)

		_, span := Tracer("test").Start(ctx, "op")
		span.End()
		require.NoError(t, shutdown(ctx))
	})

	t.Run("bad sample rate", func(t *testing.T) {
		_, err := InitTracing(ctx, config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: 1.5}, "test")
		require.Error(t, err)
	})

	t.Run("unknown exporter", func(t *testing.T) {
		_, err := InitTracing(ctx, config.TracingConfig{Enabled: true, Exporter: "zipkin", SampleRate: 1}, "test")
		require.Error(t, err)
	})
}
