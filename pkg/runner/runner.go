// Package runner fits independent changepoint models in parallel. A single
// Gibbs chain is strictly sequential, but separate (series, changepoint
// count) fits share no mutable state and scale across workers.
package runner

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/changefang/internal/observability"
	"github.com/Sumatoshi-tech/changefang/pkg/changepoint"
)

// tracerName identifies the runner's OTel tracer.
const tracerName = "github.com/Sumatoshi-tech/changefang/pkg/runner"

// Job is one independent model fit.
type Job struct {
	Sequence     *changepoint.Sequence
	Changepoints int
	Priors       changepoint.Priors
	Options      changepoint.Options
	Chib         changepoint.ChibOptions
}

// Result holds the artifacts of one completed fit. Err is set and the
// artifact fields are nil when the fit failed.
type Result struct {
	Job      Job
	Draws    *changepoint.Draws
	Summary  *changepoint.Summary
	Marginal *changepoint.MarginalLikelihood
	Elapsed  time.Duration
	Err      error
}

// Pool runs fit jobs across a bounded set of workers.
type Pool struct {
	// Workers is the concurrency bound. Zero means GOMAXPROCS.
	Workers int

	// Logger receives per-fit progress. Nil disables logging.
	Logger *slog.Logger

	// Metrics receives per-fit statistics. Nil disables metrics.
	Metrics *observability.FitMetrics
}

// Run fits every job and returns results in job order. Individual fit
// failures are recorded per result; cancellation aborts outstanding work.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]Result, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range indexes {
				results[i] = p.runJob(ctx, jobs[i])
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}

	close(indexes)
	wg.Wait()

	return results
}

func (p *Pool) runJob(ctx context.Context, job Job) Result {
	tracer := otel.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "changefang.fit", trace.WithAttributes(
		attribute.String("series", job.Sequence.ID()),
		attribute.Int("changepoints", job.Changepoints),
	))
	defer span.End()

	start := time.Now()
	result := Result{Job: job}

	result.Draws, result.Summary, result.Marginal, result.Err = p.fit(ctx, job)
	result.Elapsed = time.Since(start)

	stats := observability.FitStats{
		Changepoints: job.Changepoints,
		Elapsed:      result.Elapsed,
		Failed:       result.Err != nil,
	}

	if result.Draws != nil {
		stats.Iterations = job.Options.Burnin + job.Options.Samples
		stats.Retained = result.Draws.Len()
	}

	p.Metrics.RecordFit(ctx, stats)

	if result.Err != nil {
		span.RecordError(result.Err)
		p.log(slog.LevelError, "fit failed",
			slog.String("series", job.Sequence.ID()),
			slog.Int("changepoints", job.Changepoints),
			slog.Any("error", result.Err))

		return result
	}

	p.log(slog.LevelInfo, "fit complete",
		slog.String("series", job.Sequence.ID()),
		slog.Int("changepoints", job.Changepoints),
		slog.String("iterations", humanize.Comma(int64(stats.Iterations))),
		slog.Int("retained", stats.Retained),
		slog.Float64("log_marginal", result.Marginal.LogMarginal),
		slog.Duration("elapsed", result.Elapsed))

	return result
}

func (p *Pool) fit(ctx context.Context, job Job) (*changepoint.Draws, *changepoint.Summary, *changepoint.MarginalLikelihood, error) {
	model, err := changepoint.NewModel(job.Sequence, job.Changepoints, job.Priors)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := job.Options
	if opts.Progress == nil && p.Logger != nil {
		opts.Progress = p.progressFunc(job)
	}

	engine, err := changepoint.NewEngine(model, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	draws, err := engine.Run(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	summary, err := changepoint.Summarize(draws)
	if err != nil {
		return nil, nil, nil, err
	}

	marginal, err := changepoint.EstimateLogMarginal(ctx, model, draws, job.Chib)
	if err != nil {
		return nil, nil, nil, err
	}

	return draws, summary, marginal, nil
}

func (p *Pool) progressFunc(job Job) changepoint.ProgressFunc {
	return func(phase string, done, total int) {
		p.log(slog.LevelDebug, "sampling progress",
			slog.String("series", job.Sequence.ID()),
			slog.Int("changepoints", job.Changepoints),
			slog.String("phase", phase),
			slog.String("done", humanize.Comma(int64(done))),
			slog.String("total", humanize.Comma(int64(total))))
	}
}

func (p *Pool) log(level slog.Level, msg string, args ...any) {
	if p.Logger == nil {
		return
	}

	p.Logger.Log(context.Background(), level, msg, args...)
}
