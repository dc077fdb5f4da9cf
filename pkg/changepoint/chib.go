package changepoint

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// EvalPointPolicy selects the parameter point at which Chib's identity is
// evaluated. The estimator is sensitive to this choice, so it is configurable.
type EvalPointPolicy int

// Available evaluation point policies.
const (
	// PolicyPosteriorMean evaluates at the posterior mean of the rates and
	// self-transition probabilities across retained draws.
	PolicyPosteriorMean EvalPointPolicy = iota

	// PolicyMaxPosteriorDraw evaluates at the retained draw with the
	// highest unnormalized log posterior density.
	PolicyMaxPosteriorDraw
)

// Default reduced-run schedule for the transition ordinate.
const (
	DefaultReducedBurnin  = 200
	DefaultReducedSamples = 1000
)

// ChibOptions configures the marginal likelihood estimator.
type ChibOptions struct {
	// Policy selects the evaluation point. Default is PolicyPosteriorMean.
	Policy EvalPointPolicy

	// ReducedBurnin and ReducedSamples schedule the reduced Gibbs run used
	// for the transition ordinate. Zero values use the defaults.
	ReducedBurnin  int
	ReducedSamples int

	// Seed fixes the reduced run's random stream.
	Seed int64
}

// MarginalLikelihood is the Chib estimate for one fitted model, decomposed
// into the three terms of the identity
// log m(y) = log f(y|theta*) + log pi(theta*) - log pi(theta*|y).
type MarginalLikelihood struct {
	SeriesID     string  `json:"series_id" yaml:"series_id"`
	Changepoints int     `json:"changepoints" yaml:"changepoints"`
	LogMarginal  float64 `json:"log_marginal" yaml:"log_marginal"`

	LogLikelihood float64 `json:"log_likelihood" yaml:"log_likelihood"`
	LogPrior      float64 `json:"log_prior" yaml:"log_prior"`
	LogPosterior  float64 `json:"log_posterior" yaml:"log_posterior"`

	// RatePoint and StayPoint record the evaluation point.
	RatePoint []float64 `json:"rate_point" yaml:"rate_point"`
	StayPoint []float64 `json:"stay_point" yaml:"stay_point"`
}

// EstimateLogMarginal computes the log marginal likelihood of a fitted model
// from its retained draws using Chib's method. The rate ordinate averages the
// Gamma full-conditional density over the retained paths; the transition
// ordinate averages the Beta full-conditional density over a reduced Gibbs
// run with rates fixed at the evaluation point. For a single-regime model
// both ordinates are exact and the estimate has no Monte Carlo error.
func EstimateLogMarginal(ctx context.Context, model *Model, draws *Draws, opts ChibOptions) (*MarginalLikelihood, error) {
	if draws == nil || draws.Len() == 0 {
		return nil, fmt.Errorf("%w: no retained draws", ErrMarginalLikelihoodUnstable)
	}

	rates, stay, err := evalPoint(model, draws, opts.Policy)
	if err != nil {
		return nil, wrapModel(model, err)
	}

	ss := newStateSampler(model.Sequence().Counts(), model.Regimes())

	logLik, err := ss.forward(rates, stay)
	if err != nil {
		return nil, wrapModel(model, err)
	}

	logPrior := priorLogDensity(model.Priors(), rates, stay)

	logPost := rateOrdinate(model, draws, rates)

	if model.Changepoints() > 0 {
		stayOrd, ordErr := stayOrdinate(ctx, model, rates, stay, opts)
		if ordErr != nil {
			return nil, wrapModel(model, ordErr)
		}

		logPost += stayOrd
	}

	logMarginal := logLik + logPrior - logPost
	if math.IsNaN(logMarginal) || math.IsInf(logMarginal, 0) {
		return nil, fmt.Errorf("series %q model m=%d: %w: log terms lik=%v prior=%v post=%v",
			model.Sequence().ID(), model.Changepoints(), ErrMarginalLikelihoodUnstable, logLik, logPrior, logPost)
	}

	return &MarginalLikelihood{
		SeriesID:      draws.SeriesID,
		Changepoints:  model.Changepoints(),
		LogMarginal:   logMarginal,
		LogLikelihood: logLik,
		LogPrior:      logPrior,
		LogPosterior:  logPost,
		RatePoint:     rates,
		StayPoint:     stay,
	}, nil
}

func wrapModel(model *Model, err error) error {
	return fmt.Errorf("series %q model m=%d: %w", model.Sequence().ID(), model.Changepoints(), err)
}

// evalPoint returns the rate and self-transition point implied by the policy.
func evalPoint(model *Model, draws *Draws, policy EvalPointPolicy) (rates, stay []float64, err error) {
	switch policy {
	case PolicyPosteriorMean:
		rates, stay = meanPoint(draws)
	case PolicyMaxPosteriorDraw:
		rates, stay, err = maxPosteriorPoint(model, draws)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("%w: unknown evaluation point policy %d", ErrInvalidConfig, policy)
	}

	for _, r := range rates {
		if !(r > 0) || math.IsInf(r, 0) {
			return nil, nil, fmt.Errorf("%w: evaluation point rate %v outside (0, inf)", ErrMarginalLikelihoodUnstable, r)
		}
	}

	for _, p := range stay {
		if !(p > 0) || !(p < 1) {
			return nil, nil, fmt.Errorf("%w: evaluation point stay probability %v outside (0, 1)", ErrMarginalLikelihoodUnstable, p)
		}
	}

	return rates, stay, nil
}

func meanPoint(draws *Draws) (rates, stay []float64) {
	regimes := draws.Regimes()
	rates = make([]float64, regimes)
	stay = make([]float64, regimes-1)

	for _, rec := range draws.Records {
		floats.Add(rates, rec.Rates)

		if len(stay) > 0 {
			floats.Add(stay, rec.Stay)
		}
	}

	floats.Scale(1/float64(draws.Len()), rates)

	if len(stay) > 0 {
		floats.Scale(1/float64(draws.Len()), stay)
	}

	return rates, stay
}

func maxPosteriorPoint(model *Model, draws *Draws) (rates, stay []float64, err error) {
	ss := newStateSampler(model.Sequence().Counts(), model.Regimes())

	best := math.Inf(-1)
	bestIdx := -1

	for i, rec := range draws.Records {
		logLik, fwdErr := ss.forward(rec.Rates, rec.Stay)
		if fwdErr != nil {
			continue
		}

		logPost := logLik + priorLogDensity(model.Priors(), rec.Rates, rec.Stay)
		if logPost > best {
			best = logPost
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return nil, nil, fmt.Errorf("%w: no draw has finite posterior density", ErrMarginalLikelihoodUnstable)
	}

	rec := draws.Records[bestIdx]
	rates = make([]float64, len(rec.Rates))
	stay = make([]float64, len(rec.Stay))
	copy(rates, rec.Rates)
	copy(stay, rec.Stay)

	return rates, stay, nil
}

// priorLogDensity evaluates the joint prior log density at the given point.
func priorLogDensity(priors Priors, rates, stay []float64) float64 {
	gamma := distuv.Gamma{Alpha: priors.RateShape, Beta: priors.RateRate}
	beta := distuv.Beta{Alpha: priors.StayAlpha, Beta: priors.StayBeta}

	var sum float64

	for _, r := range rates {
		sum += gamma.LogProb(r)
	}

	for _, p := range stay {
		sum += beta.LogProb(p)
	}

	return sum
}

// rateOrdinate estimates log pi(lambda*|y) by averaging the Gamma full
// conditional density over the retained posterior paths.
func rateOrdinate(model *Model, draws *Draws, rates []float64) float64 {
	y := model.Sequence().Counts()
	priors := model.Priors()
	regimes := draws.Regimes()

	sum := make([]float64, regimes)
	cnt := make([]float64, regimes)
	terms := make([]float64, draws.Len())

	for g, rec := range draws.Records {
		for j := range regimes {
			sum[j] = 0
			cnt[j] = 0
		}

		for t, j := range rec.Path {
			sum[j] += float64(y[t])
			cnt[j]++
		}

		var term float64

		for j := range regimes {
			gd := distuv.Gamma{Alpha: priors.RateShape + sum[j], Beta: priors.RateRate + cnt[j]}
			term += gd.LogProb(rates[j])
		}

		terms[g] = term
	}

	return floats.LogSumExp(terms) - math.Log(float64(len(terms)))
}

// stayOrdinate estimates log pi(p*|lambda*, y) from a reduced Gibbs run in
// which rates stay fixed at the evaluation point, following the reduced-run
// construction of Chib's estimator.
func stayOrdinate(ctx context.Context, model *Model, rates, stayPoint []float64, opts ChibOptions) (float64, error) {
	burnin := opts.ReducedBurnin
	if burnin <= 0 {
		burnin = DefaultReducedBurnin
	}

	samples := opts.ReducedSamples
	if samples <= 0 {
		samples = DefaultReducedSamples
	}

	y := model.Sequence().Counts()
	regimes := model.Regimes()
	priors := model.Priors()

	seed := uint64(opts.Seed)
	src := rand.NewPCG(seed^0x9e3779b97f4a7c15, seed+1)
	rng := rand.New(src)

	states := newStateSampler(y, regimes)
	transitions := newTransitionSampler(regimes)

	path := make([]int, len(y))
	stay := make([]float64, regimes-1)

	initPath(path, regimes)
	copy(stay, stayPoint)

	terms := make([]float64, 0, samples)

	for iter := range burnin + samples {
		err := ctx.Err()
		if err != nil {
			return 0, fmt.Errorf("reduced run iteration %d: %w", iter, err)
		}

		sampleErr := states.Sample(rng, rates, stay, path)
		if sampleErr != nil {
			return 0, fmt.Errorf("reduced run iteration %d: %w", iter, sampleErr)
		}

		transitions.Sample(src, priors, path, stay)

		if iter < burnin {
			continue
		}

		// Sample already tallied this path; self and advance hold its
		// transition counts.
		var term float64

		for j := range stay {
			b := distuv.Beta{
				Alpha: priors.StayAlpha + transitions.self[j],
				Beta:  priors.StayBeta + transitions.advance[j],
			}
			term += b.LogProb(stayPoint[j])
		}

		terms = append(terms, term)
	}

	return floats.LogSumExp(terms) - math.Log(float64(len(terms))), nil
}
