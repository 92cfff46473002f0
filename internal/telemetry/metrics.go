package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/flightdelay/flightdelay/internal/telemetry"

// ProviderMetrics holds metrics for external provider calls and their cache.
// A nil *ProviderMetrics records nothing.
type ProviderMetrics struct {
	provider        string
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHit        metric.Int64Counter
	cacheMiss       metric.Int64Counter
}

// NewProviderMetrics creates metrics for monitoring calls to one provider.
func NewProviderMetrics(provider string) (*ProviderMetrics, error) {
	meter := Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHit, err := meter.Int64Counter(
		"provider.cache.hit",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMiss, err := meter.Int64Counter(
		"provider.cache.miss",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		provider:        provider,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHit:        cacheHit,
		cacheMiss:       cacheMiss,
	}, nil
}

func (m *ProviderMetrics) attrs(operation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("provider.name", m.provider),
		attribute.String("provider.operation", operation),
	}
}

// RecordRequest records one provider call.
func (m *ProviderMetrics) RecordRequest(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := m.attrs(operation)
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Background context so a cancelled request still gets counted.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache hit.
func (m *ProviderMetrics) RecordCacheHit(operation string) {
	if m == nil {
		return
	}
	m.cacheHit.Add(context.Background(), 1, metric.WithAttributes(m.attrs(operation)...))
}

// RecordCacheMiss records a cache miss.
func (m *ProviderMetrics) RecordCacheMiss(operation string) {
	if m == nil {
		return
	}
	m.cacheMiss.Add(context.Background(), 1, metric.WithAttributes(m.attrs(operation)...))
}

// PredictionMetrics holds metrics for delay predictions. A nil
// *PredictionMetrics records nothing.
type PredictionMetrics struct {
	predictions      metric.Int64Counter
	probability      metric.Float64Histogram
	delay            metric.Float64Histogram
	weatherFallbacks metric.Int64Counter
}

// NewPredictionMetrics creates the prediction instruments.
func NewPredictionMetrics() (*PredictionMetrics, error) {
	meter := Meter(meterName)

	predictions, err := meter.Int64Counter(
		"prediction.total",
		metric.WithDescription("Total number of direction predictions"),
		metric.WithUnit("{prediction}"),
	)
	if err != nil {
		return nil, err
	}

	probability, err := meter.Float64Histogram(
		"prediction.probability",
		metric.WithDescription("Predicted delay probability"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9),
	)
	if err != nil {
		return nil, err
	}

	delay, err := meter.Float64Histogram(
		"prediction.delay",
		metric.WithDescription("Predicted delay after gating"),
		metric.WithUnit("min"),
	)
	if err != nil {
		return nil, err
	}

	weatherFallbacks, err := meter.Int64Counter(
		"prediction.weather.fallback",
		metric.WithDescription("Number of observations replaced by the neutral fallback"),
		metric.WithUnit("{observation}"),
	)
	if err != nil {
		return nil, err
	}

	return &PredictionMetrics{
		predictions:      predictions,
		probability:      probability,
		delay:            delay,
		weatherFallbacks: weatherFallbacks,
	}, nil
}

// RecordPrediction records one direction's outcome.
func (m *PredictionMetrics) RecordPrediction(ctx context.Context, direction string, probability, delay float64, delayed bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.Bool("delayed", delayed),
	)
	m.predictions.Add(ctx, 1, attrs)
	m.probability.Record(ctx, probability, attrs)
	m.delay.Record(ctx, delay, attrs)
}

// RecordWeatherFallback records a fallback observation at an airport role
// ("origin" or "destination").
func (m *PredictionMetrics) RecordWeatherFallback(ctx context.Context, role, source string) {
	if m == nil {
		return
	}
	m.weatherFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", role),
		attribute.String("source", source),
	))
}
