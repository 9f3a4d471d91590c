package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	export "go.opentelemetry.io/otel/sdk/export/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregator/histogram"
	controller "go.opentelemetry.io/otel/sdk/metric/controller/basic"
	processor "go.opentelemetry.io/otel/sdk/metric/processor/basic"
	selector "go.opentelemetry.io/otel/sdk/metric/selector/simple"
)

var (
	ReasonKey  = attribute.Key("reason")
	HandlerKey = attribute.Key("handler")
	StatusKey  = attribute.Key("status")
)

// latency buckets, milliseconds
var latencyBoundaries = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// NewExporter builds the prometheus exporter served on the diag listener and
// installs its meter provider globally.
func NewExporter() (*prometheus.Exporter, error) {
	config := prometheus.Config{
		DefaultHistogramBoundaries: latencyBoundaries,
	}
	c := controller.New(
		processor.New(
			selector.NewWithHistogramDistribution(
				histogram.WithExplicitBoundaries(config.DefaultHistogramBoundaries),
			),
			export.CumulativeExportKindSelector(),
			processor.WithMemory(true),
		),
	)

	exporter, err := prometheus.New(config, c)
	if err != nil {
		return nil, err
	}

	global.SetMeterProvider(exporter.MeterProvider())

	return exporter, nil
}

// Metrics holds the instruments the bot records to.
type Metrics struct {
	UpdatesReceived  metric.Int64Counter
	UpdatesRejected  metric.Int64Counter
	HandlerErrors    metric.Int64Counter
	RepliesSent      metric.Int64Counter
	ProcessCompleted metric.Int64Counter
	UpdateLatency    metric.Float64ValueRecorder
}

func New(meter metric.Meter) *Metrics {
	m := metric.Must(meter)

	return &Metrics{
		UpdatesReceived: m.NewInt64Counter(
			"bot/updates_received",
			metric.WithDescription("Count of webhook updates accepted"),
		),
		UpdatesRejected: m.NewInt64Counter(
			"bot/updates_rejected",
			metric.WithDescription("Count of webhook requests rejected, by reason"),
		),
		HandlerErrors: m.NewInt64Counter(
			"bot/handler_errors",
			metric.WithDescription("Count of update handler failures, by handler"),
		),
		RepliesSent: m.NewInt64Counter(
			"bot/replies_sent",
			metric.WithDescription("Count of sendMessage calls, by status"),
		),
		ProcessCompleted: m.NewInt64Counter(
			"http/process/completed_count",
			metric.WithDescription("Count of completed /process requests"),
		),
		UpdateLatency: m.NewFloat64ValueRecorder(
			"bot/update_latency_ms",
			metric.WithDescription("Time spent dispatching one update"),
		),
	}
}

// Noop returns instruments bound to the global meter provider, which drops
// everything until an SDK provider is installed.
func Noop() *Metrics {
	return New(global.Meter("noop"))
}

func (m *Metrics) Rejected(ctx context.Context, reason string) {
	m.UpdatesRejected.Add(ctx, 1, ReasonKey.String(reason))
}
