package changepoint

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// stateSampler draws latent regime paths by forward-filtering/backward-sampling
// over the left-to-right chain. The filtered table is a dense n x regimes
// array, renormalized at every time step so the forward pass cannot underflow.
type stateSampler struct {
	y       []int
	regimes int
	filt    [][]float64
	logw    []float64
}

func newStateSampler(y []int, regimes int) *stateSampler {
	filt := make([][]float64, len(y))
	for t := range filt {
		filt[t] = make([]float64, regimes)
	}

	return &stateSampler{
		y:       y,
		regimes: regimes,
		filt:    filt,
		logw:    make([]float64, regimes),
	}
}

// Sample draws a new regime path into path, which must have length len(y).
// The path is non-decreasing, starts in state 0, and advances at most one
// state per step.
func (s *stateSampler) Sample(rng *rand.Rand, rates, stay []float64, path []int) error {
	if s.regimes == 1 {
		for t := range path {
			path[t] = 0
		}

		return nil
	}

	_, err := s.forward(rates, stay)
	if err != nil {
		return err
	}

	s.backward(rng, stay, path)

	return nil
}

// forward fills the filtered state distribution for every time step and
// returns the log-likelihood of the series under the given parameters,
// accumulated from the per-step normalizing constants.
func (s *stateSampler) forward(rates, stay []float64) (float64, error) {
	n := len(s.y)
	last := s.regimes - 1

	var logLik float64

	for t := range n {
		// Predictive state probabilities before seeing y[t]. State j is
		// only reachable once at least j transitions could have happened.
		reach := min(t, last)

		for j := 0; j <= reach; j++ {
			var pred float64

			if t == 0 {
				// The chain starts in the first state.
				if j == 0 {
					pred = 1
				}
			} else {
				pred = s.filt[t-1][j] * stayProb(stay, j, last)
				if j > 0 {
					pred += s.filt[t-1][j-1] * (1 - stay[j-1])
				}
			}

			if pred > 0 {
				s.logw[j] = math.Log(pred) + poissonLogPMF(s.y[t], rates[j])
			} else {
				s.logw[j] = math.Inf(-1)
			}
		}

		for j := reach + 1; j <= last; j++ {
			s.logw[j] = math.Inf(-1)
		}

		norm, err := s.normalizeStep(t, reach)
		if err != nil {
			return 0, err
		}

		logLik += norm
	}

	return logLik, nil
}

// normalizeStep converts the log weights at time t into a normalized filtered
// distribution and returns the log normalizing constant.
func (s *stateSampler) normalizeStep(t, reach int) (float64, error) {
	maxLog := math.Inf(-1)
	for j := 0; j <= reach; j++ {
		maxLog = math.Max(maxLog, s.logw[j])
	}

	if math.IsInf(maxLog, -1) {
		return 0, fmt.Errorf("%w: all state probabilities are zero at index %d", ErrDegenerateLikelihood, t+1)
	}

	var sum float64

	for j := range s.regimes {
		if j <= reach {
			s.filt[t][j] = math.Exp(s.logw[j] - maxLog)
			sum += s.filt[t][j]
		} else {
			s.filt[t][j] = 0
		}
	}

	for j := 0; j <= reach; j++ {
		s.filt[t][j] /= sum
	}

	return maxLog + math.Log(sum), nil
}

// backward samples the path from the filtered distributions, conditioning
// each state on the already-sampled successor. Only staying in the successor
// state or sitting one state below it is consistent with the chain.
func (s *stateSampler) backward(rng *rand.Rand, stay []float64, path []int) {
	n := len(s.y)
	last := s.regimes - 1

	path[n-1] = sampleCategorical(rng, s.filt[n-1])

	for t := n - 2; t >= 0; t-- {
		k := path[t+1]

		wStay := s.filt[t][k] * stayProb(stay, k, last)

		var wBelow float64
		if k > 0 {
			wBelow = s.filt[t][k-1] * (1 - stay[k-1])
		}

		total := wStay + wBelow
		if total <= 0 || rng.Float64()*total < wStay {
			path[t] = k
		} else {
			path[t] = k - 1
		}
	}
}

// stayProb returns the probability of remaining in state j; the terminal
// state is absorbing.
func stayProb(stay []float64, j, last int) float64 {
	if j == last {
		return 1
	}

	return stay[j]
}

// sampleCategorical draws an index proportional to the given non-negative
// weights. The weights need not be normalized.
func sampleCategorical(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}

	r := rng.Float64() * total

	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}

	return len(weights) - 1
}

// poissonLogPMF returns the log Poisson probability mass at count y with the
// given rate. A zero rate only supports zero counts.
func poissonLogPMF(y int, lambda float64) float64 {
	if lambda <= 0 {
		if y == 0 && lambda == 0 {
			return 0
		}

		return math.Inf(-1)
	}

	lg, _ := math.Lgamma(float64(y) + 1)

	return float64(y)*math.Log(lambda) - lambda - lg
}
