package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporterServesRecordedMetrics(t *testing.T) {
	exporter, err := NewExporter()
	require.NoError(t, err)

	m := New(exporter.MeterProvider().Meter("test"))
	ctx := context.Background()

	m.UpdatesReceived.Add(ctx, 2)
	m.Rejected(ctx, "secret")
	m.UpdateLatency.Record(ctx, 12.5)

	rec := httptest.NewRecorder()
	exporter.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "bot_updates_received")
	assert.Contains(t, body, `reason="secret"`)
	assert.Contains(t, body, "bot_update_latency_ms")
}

func TestNoopDoesNotPanic(t *testing.T) {
	m := Noop()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.UpdatesReceived.Add(ctx, 1)
		m.HandlerErrors.Add(ctx, 1, HandlerKey.String("echo"))
		m.UpdateLatency.Record(ctx, 1)
	})
}
