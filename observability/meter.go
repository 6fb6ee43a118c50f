package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/nodegraph/logger"
)

// MeterConfig configures metric export over OTLP HTTP.
type MeterConfig struct {
	ServiceName string
	Endpoint    string // host:port
	Insecure    bool
	// Interval is the export period; zero keeps the SDK default.
	Interval time.Duration
}

// DefaultMeterConfig exports to a local collector every 15 seconds.
func DefaultMeterConfig(serviceName string) *MeterConfig {
	return &MeterConfig{
		ServiceName: serviceName,
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the evaluation engine.
type Metrics struct {
	evaluationTotal    metric.Int64Counter
	evaluationDuration metric.Float64Histogram
	cacheHitTotal      metric.Int64Counter
	invalidationTotal  metric.Int64Counter
	updateTotal        metric.Int64Counter
	errorTotal         metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	evaluationTotal, err := meter.Int64Counter("node.evaluation.total",
		metric.WithDescription("Total number of node recomputations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.evaluation.total counter: %w", err)
	}

	evaluationDuration, err := meter.Float64Histogram("node.evaluation.duration",
		metric.WithDescription("Duration of node recomputations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.evaluation.duration histogram: %w", err)
	}

	cacheHitTotal, err := meter.Int64Counter("node.cache_hit.total",
		metric.WithDescription("Reads answered from the cached output"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.cache_hit.total counter: %w", err)
	}

	invalidationTotal, err := meter.Int64Counter("node.invalidation.total",
		metric.WithDescription("Invalidation notifications received"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.invalidation.total counter: %w", err)
	}

	updateTotal, err := meter.Int64Counter("node.update.total",
		metric.WithDescription("Input updates applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.update.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("node.error.total",
		metric.WithDescription("Failed evaluations by kind and error type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.error.total counter: %w", err)
	}

	return &Metrics{
		evaluationTotal:    evaluationTotal,
		evaluationDuration: evaluationDuration,
		cacheHitTotal:      cacheHitTotal,
		invalidationTotal:  invalidationTotal,
		updateTotal:        updateTotal,
		errorTotal:         errorTotal,
	}, nil
}

// RecordEvaluation records a completed recomputation.
func (m *Metrics) RecordEvaluation(ctx context.Context, kind, status string, duration time.Duration) {
	m.evaluationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
	m.evaluationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordCacheHit records a read served without recomputation.
func (m *Metrics) RecordCacheHit(ctx context.Context, kind string) {
	m.cacheHitTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordInvalidation records a received invalidation notification.
func (m *Metrics) RecordInvalidation(ctx context.Context, kind string) {
	m.invalidationTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordUpdate records an input update touching keys inputs.
func (m *Metrics) RecordUpdate(ctx context.Context, kind string, keys int) {
	m.updateTotal.Add(ctx, int64(keys), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordError records an error by type and kind.
func (m *Metrics) RecordError(ctx context.Context, errType, kind string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("kind", kind),
	))
}
