package changepoint

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// transitionSampler draws each non-terminal state's self-transition
// probability from its Beta full conditional: Beta(a + self-transitions,
// b + advances). The terminal state is absorbing and is not sampled.
type transitionSampler struct {
	self    []float64
	advance []float64
}

func newTransitionSampler(regimes int) *transitionSampler {
	// Tallies cover every state, including the absorbing terminal state,
	// but only non-terminal states are sampled.
	return &transitionSampler{
		self:    make([]float64, regimes),
		advance: make([]float64, regimes),
	}
}

// Sample draws one self-transition probability per non-terminal state into
// stay, which must have length regimes-1.
func (ts *transitionSampler) Sample(src rand.Source, priors Priors, path []int, stay []float64) {
	ts.tally(path)

	for j := range stay {
		b := distuv.Beta{
			Alpha: priors.StayAlpha + ts.self[j],
			Beta:  priors.StayBeta + ts.advance[j],
			Src:   src,
		}
		stay[j] = b.Rand()
	}
}

func (ts *transitionSampler) tally(path []int) {
	for j := range ts.self {
		ts.self[j] = 0
		ts.advance[j] = 0
	}

	for t := 0; t+1 < len(path); t++ {
		if path[t+1] == path[t] {
			ts.self[path[t]]++
		} else {
			ts.advance[path[t]]++
		}
	}
}
