package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFitsTotal       = "changefang.fit.runs.total"
	metricFitDuration     = "changefang.fit.duration.seconds"
	metricIterationsTotal = "changefang.fit.iterations.total"
	metricDrawsRetained   = "changefang.fit.draws.retained.total"

	attrOutcome      = "outcome"
	attrChangepoints = "changepoints"
)

// Fit duration histogram buckets, in seconds. Fits range from sub-second toy
// runs to minutes at tens of thousands of iterations.
var durationBucketBoundaries = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900}

// FitMetrics holds OTel instruments for model-fitting runs.
type FitMetrics struct {
	fitsTotal   metric.Int64Counter
	fitDuration metric.Float64Histogram
	iterations  metric.Int64Counter
	retained    metric.Int64Counter
}

// FitStats holds the statistics of one completed or failed fit.
type FitStats struct {
	Changepoints int
	Iterations   int
	Retained     int
	Elapsed      time.Duration
	Failed       bool
}

// NewFitMetrics creates fit metric instruments from the given meter.
func NewFitMetrics(mt metric.Meter) (*FitMetrics, error) {
	b := newMetricBuilder(mt)

	fm := &FitMetrics{
		fitsTotal:   b.counter(metricFitsTotal, "Total model fits by outcome", "{run}"),
		fitDuration: b.histogram(metricFitDuration, "Per-fit wall time in seconds", "s", durationBucketBoundaries...),
		iterations:  b.counter(metricIterationsTotal, "Total Gibbs iterations executed", "{iteration}"),
		retained:    b.counter(metricDrawsRetained, "Total posterior draws retained", "{draw}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return fm, nil
}

// RecordFit records one fit run. Safe to call on a nil receiver (no-op).
func (fm *FitMetrics) RecordFit(ctx context.Context, stats FitStats) {
	if fm == nil {
		return
	}

	outcome := "ok"
	if stats.Failed {
		outcome = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOutcome, outcome),
		attribute.Int(attrChangepoints, stats.Changepoints),
	)

	fm.fitsTotal.Add(ctx, 1, attrs)
	fm.fitDuration.Record(ctx, stats.Elapsed.Seconds(), attrs)
	fm.iterations.Add(ctx, int64(stats.Iterations), attrs)
	fm.retained.Add(ctx, int64(stats.Retained), attrs)
}
