// internal/common/observability/metrics.go
// Package observability exposes OpenTelemetry instruments through the Prometheus exporter.
package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/otlptranslator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter

	submissions   otelmetric.Int64Counter
	scores        otelmetric.Int64Histogram
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	dispatchTimer otelmetric.Float64Histogram
}

// New registers the exporter with the default Prometheus registerer and installs the
// provider globally.
func New(serviceName string) (*Observability, error) {
	o, err := NewWithRegisterer(serviceName, promclient.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(o.meterProvider)
	return o, nil
}

// NewWithRegisterer builds instruments exported through reg. Names are escaped to
// underscores with unit and _total suffixes, the same form as the promauto collectors.
func NewWithRegisterer(serviceName string, reg promclient.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(reg),
		prometheus.WithTranslationStrategy(otlptranslator.UnderscoreEscapingWithSuffixes),
	)
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	o := &Observability{meterProvider: provider, meter: meter}

	if o.submissions, err = meter.Int64Counter(
		"aiq.assessment.submissions",
		otelmetric.WithDescription("Assessment submissions by industry and outcome"),
	); err != nil {
		return nil, err
	}

	if o.scores, err = meter.Int64Histogram(
		"aiq.assessment.percentage",
		otelmetric.WithDescription("Percentage score of accepted submissions"),
		otelmetric.WithUnit("%"),
	); err != nil {
		return nil, err
	}

	if o.jobCounter, err = meter.Int64Counter(
		"aiq.jobs.processed",
		otelmetric.WithDescription("Number of worker jobs processed"),
	); err != nil {
		return nil, err
	}

	if o.jobDuration, err = meter.Float64Histogram(
		"aiq.jobs.duration",
		otelmetric.WithDescription("Worker job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if o.dispatchTimer, err = meter.Float64Histogram(
		"aiq.leads.dispatch.duration",
		otelmetric.WithDescription("Time spent handing a lead to downstream sinks"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RecordSubmission counts one submission attempt.
func (o *Observability) RecordSubmission(ctx context.Context, industry, outcome string) {
	if o == nil || o.submissions == nil {
		return
	}
	o.submissions.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("industry", industry),
		attribute.String("outcome", outcome),
	))
}

// RecordScore records the percentage score of an accepted submission.
func (o *Observability) RecordScore(ctx context.Context, industry string, percentage int) {
	if o == nil || o.scores == nil {
		return
	}
	o.scores.Record(ctx, int64(percentage), otelmetric.WithAttributes(
		attribute.String("industry", industry),
	))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// RecordDispatch records how long a lead hand-off took.
func (o *Observability) RecordDispatch(ctx context.Context, mode string, duration time.Duration, status string) {
	if o == nil || o.dispatchTimer == nil {
		return
	}
	o.dispatchTimer.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
