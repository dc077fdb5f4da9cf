package changepoint

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// exactLogMarginal integrates the marginal likelihood in closed form by
// enumerating every admissible regime path. Both the Gamma-Poisson segment
// evidence and the Beta transition integral are analytic, so this is exact
// up to floating point. Only feasible for short series; used to validate the
// Chib estimator.
func exactLogMarginal(y []int, m int, priors Priors) float64 {
	n := len(y)
	regimes := m + 1

	var terms []float64

	path := make([]int, n)

	var walk func(pos int)

	walk = func(pos int) {
		if pos == n {
			terms = append(terms, logPathEvidence(y, path, regimes, priors))

			return
		}

		path[pos] = path[pos-1]
		walk(pos + 1)

		if path[pos-1]+1 < regimes {
			path[pos] = path[pos-1] + 1
			walk(pos + 1)
		}
	}

	path[0] = 0
	walk(1)

	return floats.LogSumExp(terms)
}

func logPathEvidence(y, path []int, regimes int, priors Priors) float64 {
	self := make([]float64, regimes)
	advance := make([]float64, regimes)
	sum := make([]float64, regimes)
	cnt := make([]float64, regimes)

	for t, j := range path {
		sum[j] += float64(y[t])
		cnt[j]++

		if t+1 < len(path) {
			if path[t+1] == j {
				self[j]++
			} else {
				advance[j]++
			}
		}
	}

	var lp float64

	for j := 0; j < regimes-1; j++ {
		lp += lbeta(priors.StayAlpha+self[j], priors.StayBeta+advance[j]) -
			lbeta(priors.StayAlpha, priors.StayBeta)
	}

	for j := range regimes {
		if cnt[j] == 0 {
			continue
		}

		lgPost, _ := math.Lgamma(priors.RateShape + sum[j])
		lgPrior, _ := math.Lgamma(priors.RateShape)

		lp += lgPost - lgPrior +
			priors.RateShape*math.Log(priors.RateRate) -
			(priors.RateShape+sum[j])*math.Log(priors.RateRate+cnt[j])
	}

	for _, v := range y {
		lg, _ := math.Lgamma(float64(v) + 1)
		lp -= lg
	}

	return lp
}

func lbeta(a, b float64) float64 {
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)

	return la + lb - lab
}

func estimateFor(t *testing.T, y []int, m int, opts Options, chib ChibOptions) *MarginalLikelihood {
	t.Helper()

	seq, err := NewSequence("chib", y)
	require.NoError(t, err)

	model, err := NewModel(seq, m, DefaultPriors())
	require.NoError(t, err)

	engine, err := NewEngine(model, opts)
	require.NoError(t, err)

	draws, err := engine.Run(context.Background())
	require.NoError(t, err)

	ml, err := EstimateLogMarginal(context.Background(), model, draws, chib)
	require.NoError(t, err)

	return ml
}

func TestChib_ExactForSingleRegime(t *testing.T) {
	t.Parallel()

	y := []int{0, 1, 0, 4, 5, 3}

	ml := estimateFor(t, y, 0,
		Options{Burnin: 100, Samples: 500, Thin: 1, Seed: 5}, ChibOptions{})

	want := exactLogMarginal(y, 0, DefaultPriors())

	// With one regime every term of the identity is analytic, so the
	// estimate carries no Monte Carlo error.
	assert.InDelta(t, want, ml.LogMarginal, 1e-9)
}

func TestChib_MatchesEnumerationSmall(t *testing.T) {
	t.Parallel()

	y := []int{0, 1, 0, 0, 4, 5, 3, 6}

	ml := estimateFor(t, y, 1,
		Options{Burnin: 500, Samples: 4000, Thin: 1, Seed: 17},
		ChibOptions{ReducedBurnin: 500, ReducedSamples: 4000, Seed: 17})

	want := exactLogMarginal(y, 1, DefaultPriors())

	assert.InDelta(t, want, ml.LogMarginal, 0.25)
}

func TestChib_PoliciesAgree(t *testing.T) {
	t.Parallel()

	y := []int{0, 1, 0, 0, 4, 5, 3, 6}
	opts := Options{Burnin: 500, Samples: 4000, Thin: 1, Seed: 23}

	mean := estimateFor(t, y, 1, opts, ChibOptions{Seed: 23})
	maxDraw := estimateFor(t, y, 1, opts, ChibOptions{Policy: PolicyMaxPosteriorDraw, Seed: 23})

	// Both policies estimate the same quantity; they may only differ by
	// Monte Carlo error.
	assert.InDelta(t, mean.LogMarginal, maxDraw.LogMarginal, 1.0)
}

func TestChib_SelectsTrueChangepointCount(t *testing.T) {
	t.Parallel()

	counts, err := Simulate(31, []float64{0.5, 5.0}, []int{60, 60})
	require.NoError(t, err)

	opts := Options{Burnin: 500, Samples: 2000, Thin: 2, Seed: 31}

	logML := make(map[int]float64, 3)

	for _, m := range []int{0, 1, 2} {
		ml := estimateFor(t, counts, m, opts, ChibOptions{Seed: 31})
		logML[m] = ml.LogMarginal
	}

	assert.Greater(t, logML[1], logML[0], "the true two-regime model must beat the single-regime model")
	assert.Greater(t, logML[1], logML[2], "the true two-regime model must beat the overfitted model")
}

func TestChib_NoDraws(t *testing.T) {
	t.Parallel()

	seq, err := NewSequence("none", []int{1, 2})
	require.NoError(t, err)

	model, err := NewModel(seq, 0, DefaultPriors())
	require.NoError(t, err)

	_, err = EstimateLogMarginal(context.Background(), model, &Draws{}, ChibOptions{})

	require.ErrorIs(t, err, ErrMarginalLikelihoodUnstable)
}
