package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/shaynamir/archbench/archbench"
)

// InitMetrics initializes an OpenTelemetry meter provider with a Prometheus
// exporter and installs it globally. The returned handler serves the
// /metrics scrape endpoint.
func InitMetrics(serviceName string) (*sdkmetric.MeterProvider, http.Handler, error) {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)
	return provider, promhttp.Handler(), nil
}

// UnitMetrics publishes one observation per completed benchmark unit.
type UnitMetrics struct {
	unitsCompleted metric.Int64Counter
	unitLatency    metric.Float64Histogram
}

// NewUnitMetrics creates the benchmark unit instruments on the global meter.
func NewUnitMetrics() (*UnitMetrics, error) {
	meter := otel.Meter("archbench")

	unitsCompleted, err := meter.Int64Counter(
		"archbench.units.completed",
		metric.WithDescription("Completed benchmark units by variant and status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create units counter: %w", err)
	}

	unitLatency, err := meter.Float64Histogram(
		"archbench.unit.latency",
		metric.WithDescription("Wall-clock duration of one benchmark unit"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}

	return &UnitMetrics{
		unitsCompleted: unitsCompleted,
		unitLatency:    unitLatency,
	}, nil
}

// ObserveUnit records one completed unit.
func (m *UnitMetrics) ObserveUnit(ctx context.Context, variant string, status archbench.Status, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("variant", variant),
		attribute.String("status", string(status)),
	)
	m.unitsCompleted.Add(ctx, 1, attrs)
	m.unitLatency.Record(ctx, elapsed.Seconds(), attrs)
}
