package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"applicant-portal/internal/common/logger"
)

// Observability records submission outcomes through an OpenTelemetry meter
// exported on the default prometheus registry.
type Observability struct {
	meterProvider      *metric.MeterProvider
	submissionCounter  otelmetric.Int64Counter
	submissionDuration otelmetric.Float64Histogram
	logger             logger.Logger
}

func New(serviceName string, log logger.Logger) *Observability {
	log = logger.ForComponent(log, "observability")

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err})
		return &Observability{logger: log}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	counter, _ := meter.Int64Counter(
		"portal.submissions",
		otelmetric.WithDescription("Number of application submissions attempted"),
	)
	duration, _ := meter.Float64Histogram(
		"portal.submission.duration",
		otelmetric.WithDescription("Submission round-trip duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:      provider,
		submissionCounter:  counter,
		submissionDuration: duration,
		logger:             log,
	}
}

// RecordSubmission records one submission attempt. A nil receiver is a no-op.
func (o *Observability) RecordSubmission(ctx context.Context, flow, status string, d time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("status", status),
	)
	if o.submissionCounter != nil {
		o.submissionCounter.Add(ctx, 1, attrs)
	}
	if o.submissionDuration != nil {
		o.submissionDuration.Record(ctx, float64(d.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		o.logger.Warn("meter provider shutdown failed", map[string]interface{}{"error": err})
	}
}
