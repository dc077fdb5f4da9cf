package changepoint

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestRates_SingleRegimeMatchesAnalyticPosterior(t *testing.T) {
	t.Parallel()

	counts, err := Simulate(21, []float64{2.5}, []int{150})
	require.NoError(t, err)

	seq, err := NewSequence("single", counts)
	require.NoError(t, err)

	priors := DefaultPriors()

	model, err := NewModel(seq, 0, priors)
	require.NoError(t, err)

	engine, err := NewEngine(model, Options{Burnin: 200, Samples: 4000, Thin: 1, Seed: 13})
	require.NoError(t, err)

	draws, err := engine.Run(t.Context())
	require.NoError(t, err)

	// With m = 0 the full conditional is the closed-form conjugate
	// posterior Gamma(c0 + sum y, d0 + n).
	shape := priors.RateShape + float64(seq.Total())
	rate := priors.RateRate + float64(seq.Len())
	analyticMean := shape / rate

	sampled := make([]float64, draws.Len())
	for g, rec := range draws.Records {
		sampled[g] = rec.Rates[0]
	}

	assert.InDelta(t, analyticMean, stat.Mean(sampled, nil), 0.05,
		"sampled posterior mean must match the analytic Gamma posterior mean within Monte Carlo error")
}

func TestRates_EmptyRegimeDrawsFromPrior(t *testing.T) {
	t.Parallel()

	y := []int{1, 2, 3, 4}
	rs := newRateSampler(y, 2)
	src := rand.NewPCG(3, 4)
	priors := DefaultPriors()

	// All observations sit in the first regime; the second regime has no
	// data and must be drawn from the prior alone.
	path := []int{0, 0, 0, 0}

	const draws = 4000

	sampled := make([]float64, draws)
	rates := make([]float64, 2)

	for i := range draws {
		rs.Sample(src, priors, path, rates)
		sampled[i] = rates[1]
	}

	priorMean := priors.RateShape / priors.RateRate

	assert.InDelta(t, priorMean, stat.Mean(sampled, nil), 0.08)
}
