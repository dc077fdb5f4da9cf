package changepoint

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// rateSampler draws regime rates from their Gamma-Poisson full conditionals.
// Given the path, the rates are conditionally independent: each regime's
// posterior is Gamma(c0 + sum of its counts, d0 + its occupancy).
type rateSampler struct {
	y   []int
	sum []float64
	cnt []float64
}

func newRateSampler(y []int, regimes int) *rateSampler {
	return &rateSampler{
		y:   y,
		sum: make([]float64, regimes),
		cnt: make([]float64, regimes),
	}
}

// Sample draws one rate per regime into rates. A regime with no assigned
// observations is drawn from the prior alone.
func (r *rateSampler) Sample(src rand.Source, priors Priors, path []int, rates []float64) {
	r.tally(path)

	for j := range rates {
		g := distuv.Gamma{
			Alpha: priors.RateShape + r.sum[j],
			Beta:  priors.RateRate + r.cnt[j],
			Src:   src,
		}
		rates[j] = g.Rand()
	}
}

func (r *rateSampler) tally(path []int) {
	for j := range r.sum {
		r.sum[j] = 0
		r.cnt[j] = 0
	}

	for t, j := range path {
		r.sum[j] += float64(r.y[t])
		r.cnt[j]++
	}
}
