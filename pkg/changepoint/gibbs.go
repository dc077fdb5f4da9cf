package changepoint

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler phases reported through the progress callback.
const (
	PhaseBurnin   = "burnin"
	PhaseSampling = "sampling"
)

// DefaultProgressEvery is the default progress reporting interval in
// iterations.
const DefaultProgressEvery = 1000

// ProgressFunc receives periodic progress updates during a run. The callback
// runs on the sampling goroutine and must be fast.
type ProgressFunc func(phase string, done, total int)

// Options configures one Gibbs run.
type Options struct {
	// Burnin is the number of discarded warm-up iterations.
	Burnin int

	// Samples is the number of post-burnin iterations.
	Samples int

	// Thin retains every Thin-th post-burnin iteration. Samples must be
	// evenly divisible by Thin.
	Thin int

	// Seed fixes the random stream. Runs with identical inputs and seed
	// produce bit-identical draws.
	Seed int64

	// Progress, when non-nil, is invoked every ProgressEvery iterations.
	Progress ProgressFunc

	// ProgressEvery is the progress reporting interval in iterations.
	// Zero means DefaultProgressEvery.
	ProgressEvery int
}

// Validate checks the sampling schedule.
func (o Options) Validate() error {
	if o.Burnin < 0 {
		return fmt.Errorf("%w: burnin must be non-negative, got %d", ErrInvalidConfig, o.Burnin)
	}

	if o.Samples <= 0 {
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidConfig, o.Samples)
	}

	if o.Thin < 1 {
		return fmt.Errorf("%w: thin must be at least 1, got %d", ErrInvalidConfig, o.Thin)
	}

	if o.Samples%o.Thin != 0 {
		return fmt.Errorf("%w: samples %d not evenly divisible by thin %d", ErrInvalidConfig, o.Samples, o.Thin)
	}

	if o.Seed < 0 {
		return fmt.Errorf("%w: seed must be non-negative, got %d", ErrInvalidConfig, o.Seed)
	}

	return nil
}

// Engine orchestrates the Gibbs sweep: path, then rates, then transition
// probabilities, each conditioning on the previous step's output. One engine
// owns one run; it is not safe for concurrent use.
type Engine struct {
	model *Model
	opts  Options

	states      *stateSampler
	rates       *rateSampler
	transitions *transitionSampler
}

// NewEngine validates the options and prepares an engine for the model.
func NewEngine(model *Model, opts Options) (*Engine, error) {
	err := opts.Validate()
	if err != nil {
		return nil, fmt.Errorf("series %q model m=%d: %w", model.Sequence().ID(), model.Changepoints(), err)
	}

	y := model.Sequence().Counts()
	regimes := model.Regimes()

	return &Engine{
		model:       model,
		opts:        opts,
		states:      newStateSampler(y, regimes),
		rates:       newRateSampler(y, regimes),
		transitions: newTransitionSampler(regimes),
	}, nil
}

// Model returns the model the engine was built for.
func (e *Engine) Model() *Model { return e.model }

// TotalIterations returns burnin + samples.
func (e *Engine) TotalIterations() int { return e.opts.Burnin + e.opts.Samples }

// Retained returns the number of draws a completed run produces.
func (e *Engine) Retained() int { return e.opts.Samples / e.opts.Thin }

// Run executes the full Gibbs schedule and returns the retained draws.
// Cancellation is checked between iterations; a cancelled run returns the
// context error wrapped with the series and model identity.
func (e *Engine) Run(ctx context.Context) (*Draws, error) {
	seq := e.model.Sequence()
	n := seq.Len()
	regimes := e.model.Regimes()
	priors := e.model.Priors()

	seed := uint64(e.opts.Seed)
	src := rand.NewPCG(seed, seed+1)
	rng := rand.New(src)

	rates := make([]float64, regimes)
	stay := make([]float64, regimes-1)
	path := make([]int, n)

	initPath(path, regimes)
	initParams(src, priors, rates, stay)

	draws := &Draws{
		SeriesID:     seq.ID(),
		Changepoints: e.model.Changepoints(),
		N:            n,
		Seed:         e.opts.Seed,
		Records:      make([]Draw, 0, e.Retained()),
	}

	total := e.TotalIterations()

	for iter := range total {
		err := ctx.Err()
		if err != nil {
			return nil, fmt.Errorf("series %q model m=%d iteration %d: %w",
				seq.ID(), e.model.Changepoints(), iter, err)
		}

		sampleErr := e.states.Sample(rng, rates, stay, path)
		if sampleErr != nil {
			return nil, fmt.Errorf("series %q model m=%d iteration %d: %w",
				seq.ID(), e.model.Changepoints(), iter, sampleErr)
		}

		e.rates.Sample(src, priors, path, rates)
		e.transitions.Sample(src, priors, path, stay)

		if iter >= e.opts.Burnin && (iter-e.opts.Burnin+1)%e.opts.Thin == 0 {
			draws.append(rates, stay, path)
		}

		e.reportProgress(iter, total)
	}

	return draws, nil
}

func (e *Engine) reportProgress(iter, total int) {
	if e.opts.Progress == nil {
		return
	}

	every := e.opts.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}

	done := iter + 1
	if done%every != 0 && done != total {
		return
	}

	phase := PhaseSampling
	if iter < e.opts.Burnin {
		phase = PhaseBurnin
	}

	e.opts.Progress(phase, done, total)
}

// initPath assigns evenly spaced regimes as the deterministic starting path.
func initPath(path []int, regimes int) {
	n := len(path)

	for t := range path {
		j := t * regimes / n
		if j > regimes-1 {
			j = regimes - 1
		}

		path[t] = j
	}
}

// initParams draws starting rates and self-transition probabilities from
// their priors using the run's seeded stream.
func initParams(src rand.Source, priors Priors, rates, stay []float64) {
	g := distuv.Gamma{Alpha: priors.RateShape, Beta: priors.RateRate, Src: src}
	for j := range rates {
		rates[j] = g.Rand()
	}

	b := distuv.Beta{Alpha: priors.StayAlpha, Beta: priors.StayBeta, Src: src}
	for j := range stay {
		stay[j] = b.Rand()
	}
}
