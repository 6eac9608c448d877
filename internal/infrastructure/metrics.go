package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterName is the instrumentation scope of the pipeline instruments
const MeterName = "datalab"

// Metrics collects batch-run metrics for the node_exporter textfile collector.
// Stage instruments go through an OpenTelemetry meter whose Prometheus
// exporter shares the registry with the plain collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	meterProvider *sdkmetric.MeterProvider

	stageDuration   metric.Float64Histogram
	stageExecutions metric.Int64Counter

	rows          *prometheus.GaugeVec
	fetchAttempts prometheus.Counter
	lastSuccess   prometheus.Gauge
}

// NewMetrics creates the metric set on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "datalab",
			Name:      "rows",
			Help:      "Row count of the table produced by each pipeline step.",
		}, []string{"step"}),
		fetchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datalab",
			Name:      "fetch_attempts_total",
			Help:      "Number of dataset archive downloads attempted.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "datalab",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pipeline run.",
		}),
	}
	m.registry.MustRegister(m.rows, m.fetchAttempts, m.lastSuccess)

	if err := m.initMeter(); err != nil {
		// Instruments stay nil and stage observations are dropped
		GetLogger().Warn("Failed to initialize stage metrics", "error", err)
	}
	return m
}

// initMeter wires an OpenTelemetry meter to the registry
func (m *Metrics) initMeter() error {
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(m.registry),
		otelprom.WithoutScopeInfo(),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	m.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := m.meterProvider.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))

	m.stageDuration, err = meter.Float64Histogram("datalab.stage.duration",
		metric.WithDescription("Wall time of pipeline stage executions."),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("failed to create stage duration histogram: %w", err)
	}

	m.stageExecutions, err = meter.Int64Counter("datalab.stage.executions",
		metric.WithDescription("Number of pipeline stage executions by outcome."))
	if err != nil {
		return fmt.Errorf("failed to create stage execution counter: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStage records a stage duration and its outcome
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	if m == nil || m.stageDuration == nil {
		return
	}
	status := "succeeded"
	if err != nil {
		status = "failed"
	}

	ctx := context.Background()
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
	m.stageExecutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// SetRows records the row count after a pipeline step
func (m *Metrics) SetRows(step string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(step).Set(float64(n))
}

// IncFetchAttempts counts one download attempt
func (m *Metrics) IncFetchAttempts() {
	if m == nil {
		return
	}
	m.fetchAttempts.Inc()
}

// MarkSuccess stamps the time of a successful run
func (m *Metrics) MarkSuccess(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccess.Set(float64(t.Unix()))
}

// WriteTextfile writes all metrics in the text exposition format to path
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
