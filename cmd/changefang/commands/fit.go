// Package commands implements CLI command handlers for changefang.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/changefang/internal/config"
	"github.com/Sumatoshi-tech/changefang/internal/observability"
	"github.com/Sumatoshi-tech/changefang/pkg/changepoint"
	"github.com/Sumatoshi-tech/changefang/pkg/panel"
	"github.com/Sumatoshi-tech/changefang/pkg/persist"
	"github.com/Sumatoshi-tech/changefang/pkg/report"
	"github.com/Sumatoshi-tech/changefang/pkg/runner"
)

// ErrFitFailed indicates at least one model fit did not complete.
var ErrFitFailed = errors.New("one or more fits failed")

const metricsReadHeaderTimeout = 5 * time.Second

type fitFlags struct {
	configPath string
	series     []string
	models     []int
	outputDir  string
	format     string
	saveDraws  bool
	plot       bool
	workers    int
	seed       int64
	verbose    bool
	quiet      bool
}

// NewFitCommand creates the fit command.
func NewFitCommand() *cobra.Command {
	flags := &fitFlags{}

	cmd := &cobra.Command{
		Use:   "fit <panel.csv>",
		Short: "Fit changepoint models to series from a count panel",
		Long: `Fit reads a monthly count panel CSV (country,month,<event types>...),
runs the Gibbs sampler for every candidate changepoint count, and reports
posterior summaries plus a marginal likelihood model comparison.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "config file path (default: .changefang.yaml in CWD or $HOME)")
	cmd.Flags().StringSliceVar(&flags.series, "series", nil, "series to fit as COUNTRY/type (default: all)")
	cmd.Flags().IntSliceVar(&flags.models, "models", nil, "candidate changepoint counts")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "directory for reports and artifacts")
	cmd.Flags().StringVar(&flags.format, "format", "", "report format: json or yaml")
	cmd.Flags().BoolVar(&flags.saveDraws, "save-draws", false, "persist posterior draws per fit")
	cmd.Flags().BoolVar(&flags.plot, "plot", false, "write an HTML plot page per series")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "parallel fit workers (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&flags.seed, "seed", -1, "sampler seed override")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress progress logging")

	return cmd
}

func runFit(cmd *cobra.Command, panelPath string, flags *fitFlags) error {
	cfg, err := loadFitConfig(cmd, flags)
	if err != nil {
		return err
	}

	pnl, err := panel.LoadFile(panelPath)
	if err != nil {
		return fmt.Errorf("load panel: %w", err)
	}

	sequences, err := selectSeries(pnl, flags.series)
	if err != nil {
		return err
	}

	pool := &runner.Pool{
		Workers: cfg.Runner.Workers,
		Logger:  newLogger(flags),
	}

	shutdownMetrics, err := startMetrics(cfg, pool)
	if err != nil {
		return err
	}
	defer shutdownMetrics()

	jobs := buildJobs(cfg, sequences)
	results := pool.Run(cmd.Context(), jobs)

	return renderResults(cmd.OutOrStdout(), cfg, sequences, results)
}

func loadFitConfig(cmd *cobra.Command, flags *fitFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("models") {
		cfg.Sampler.Models = flags.models
	}

	if cmd.Flags().Changed("workers") {
		cfg.Runner.Workers = flags.workers
	}

	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir = flags.outputDir
	}

	if cmd.Flags().Changed("format") {
		cfg.Output.Format = flags.format
	}

	if cmd.Flags().Changed("seed") {
		cfg.Sampler.Seed = flags.seed
	}

	if flags.saveDraws {
		cfg.Output.SaveDraws = true
	}

	if flags.plot {
		cfg.Output.Plot = true
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// selectSeries resolves --series values against the panel, defaulting to
// every country and event type.
func selectSeries(pnl *panel.Panel, selectors []string) ([]*changepoint.Sequence, error) {
	if len(selectors) == 0 {
		for _, country := range pnl.Countries() {
			for _, eventType := range pnl.EventTypes() {
				selectors = append(selectors, country+"/"+eventType)
			}
		}
	}

	sequences := make([]*changepoint.Sequence, 0, len(selectors))

	for _, sel := range selectors {
		country, eventType, ok := strings.Cut(sel, "/")
		if !ok {
			return nil, fmt.Errorf("%w: series %q is not COUNTRY/type", panel.ErrUnknownSeries, sel)
		}

		seq, err := pnl.Series(country, eventType)
		if err != nil {
			return nil, err
		}

		sequences = append(sequences, seq)
	}

	return sequences, nil
}

func buildJobs(cfg *config.Config, sequences []*changepoint.Sequence) []runner.Job {
	jobs := make([]runner.Job, 0, len(sequences)*len(cfg.Sampler.Models))

	for _, seq := range sequences {
		for _, m := range cfg.Sampler.Models {
			jobs = append(jobs, runner.Job{
				Sequence:     seq,
				Changepoints: m,
				Priors:       cfg.ChangepointPriors(),
				Options:      cfg.SamplerOptions(),
				Chib:         cfg.ChibOptions(),
			})
		}
	}

	return jobs
}

// renderResults groups per-model results back into per-series documents,
// prints the terminal tables, and writes report artifacts.
func renderResults(w io.Writer, cfg *config.Config, sequences []*changepoint.Sequence, results []runner.Result) error {
	perSeries := len(cfg.Sampler.Models)
	failed := 0

	for i, seq := range sequences {
		models := make([]report.ModelReport, 0, perSeries)

		for _, res := range results[i*perSeries : (i+1)*perSeries] {
			if res.Err != nil {
				failed++

				fmt.Fprintf(w, "fit %s m=%d failed: %v\n", seq.ID(), res.Job.Changepoints, res.Err)

				continue
			}

			models = append(models, report.ModelReport{
				Changepoints: res.Job.Changepoints,
				Summary:      res.Summary,
				Marginal:     res.Marginal,
			})

			if cfg.Output.SaveDraws {
				err := saveDraws(cfg, res.Draws)
				if err != nil {
					return err
				}
			}
		}

		if len(models) == 0 {
			continue
		}

		doc := report.NewDocument(seq, models)

		for _, m := range doc.Models {
			fmt.Fprintln(w, report.RegimeTable(m))
			fmt.Fprintln(w)
		}

		fmt.Fprintln(w, report.ComparisonTable(doc))
		fmt.Fprintln(w)

		err := writeDocument(cfg, doc)
		if err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFitFailed, failed, len(results))
	}

	return nil
}

func writeDocument(cfg *config.Config, doc *report.Document) error {
	base := filepath.Join(cfg.Output.Dir, sanitizeID(doc.SeriesID))

	err := os.MkdirAll(cfg.Output.Dir, 0o750)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(base + "." + cfg.Output.Format)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	err = report.Write(f, doc, cfg.Output.Format)
	if err != nil {
		return err
	}

	if cfg.Output.Plot {
		plotFile, plotErr := os.Create(base + ".html")
		if plotErr != nil {
			return fmt.Errorf("create plot file: %w", plotErr)
		}
		defer plotFile.Close()

		plotErr = report.WritePlot(plotFile, doc)
		if plotErr != nil {
			return plotErr
		}
	}

	return nil
}

func saveDraws(cfg *config.Config, draws *changepoint.Draws) error {
	codec, err := persist.ForFormat(cfg.Output.DrawCodec)
	if err != nil {
		return err
	}

	base := fmt.Sprintf("%s.m%d.draws", sanitizeID(draws.SeriesID), draws.Changepoints)

	err = persist.SaveArtifact(cfg.Output.Dir, base, codec, draws)
	if err != nil {
		return fmt.Errorf("save draws: %w", err)
	}

	return nil
}

func sanitizeID(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}

func newLogger(flags *fitFlags) *slog.Logger {
	if flags.quiet {
		return nil
	}

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// startMetrics serves the Prometheus endpoint when enabled and returns a
// shutdown func. Disabled metrics return a no-op shutdown.
func startMetrics(cfg *config.Config, pool *runner.Pool) (func(), error) {
	if !cfg.Metrics.Enabled {
		return func() {}, nil
	}

	meter, handler, err := observability.PrometheusHandler()
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewFitMetrics(meter)
	if err != nil {
		return nil, err
	}

	pool.Metrics = metrics

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		serveErr := srv.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("metrics server stopped", slog.Any("error", serveErr))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
