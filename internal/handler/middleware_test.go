package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingSpanName(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	srv := newTestServer(t, 60, 10)

	tests := []struct {
		name     string
		path     string
		status   int
		wantSpan string
		route    string
	}{
		{"path parameter", "/api/events/5f0c8a52-missing", http.StatusNotFound, "GET /api/events/{id}", "/api/events/{id}"},
		{"static route", "/health", http.StatusOK, "GET /health", "/health"},
		{"unmatched", "/nowhere/abc", http.StatusNotFound, "GET /nowhere/abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.Reset()
			w, _ := srv.do(t, http.MethodGet, tt.path, "", nil)
			require.Equal(t, tt.status, w.Code)

			var server []sdktrace.ReadOnlySpan
			for _, s := range rec.Ended() {
				if s.SpanKind() == trace.SpanKindServer {
					server = append(server, s)
				}
			}
			require.Len(t, server, 1)
			require.Equal(t, tt.wantSpan, server[0].Name())

			var route string
			for _, kv := range server[0].Attributes() {
				if kv.Key == attribute.Key("http.route") {
					route = kv.Value.AsString()
				}
			}
			require.Equal(t, tt.route, route)
		})
	}
}
