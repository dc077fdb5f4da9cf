package changepoint

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Credible interval bounds: the 2.5th and 97.5th empirical percentiles.
const (
	intervalLow  = 0.025
	intervalHigh = 0.975
)

// RegimeSummary holds the posterior summary for one regime. Regime numbers
// are one-based in reports.
type RegimeSummary struct {
	Regime   int     `json:"regime" yaml:"regime"`
	RateMean float64 `json:"rate_mean" yaml:"rate_mean"`
	RateLow  float64 `json:"rate_low" yaml:"rate_low"`
	RateHigh float64 `json:"rate_high" yaml:"rate_high"`
}

// Summary reduces the retained draws of one fitted model: per-regime rate
// summaries, per-time-point regime-occupancy probabilities, and point
// estimates of the changepoint locations.
type Summary struct {
	SeriesID     string          `json:"series_id" yaml:"series_id"`
	Changepoints int             `json:"changepoints" yaml:"changepoints"`
	Regimes      []RegimeSummary `json:"regimes" yaml:"regimes"`

	// Occupancy[t][j] is the share of retained draws assigning time t
	// (zero-based) to regime j (zero-based).
	Occupancy [][]float64 `json:"occupancy" yaml:"occupancy"`

	// ChangepointEstimates holds, per changepoint, the posterior mode of
	// the one-based month index at which the next regime begins. An entry
	// is 0 when no retained draw ever reaches that regime.
	ChangepointEstimates []int `json:"changepoint_estimates" yaml:"changepoint_estimates"`
}

// Summarize computes the posterior summary from retained draws. It is a pure
// function of the draws: repeated calls return identical results.
func Summarize(draws *Draws) (*Summary, error) {
	if draws == nil || draws.Len() == 0 {
		return nil, fmt.Errorf("%w: no retained draws to summarize", ErrInvalidInput)
	}

	regimes := draws.Regimes()

	s := &Summary{
		SeriesID:             draws.SeriesID,
		Changepoints:         draws.Changepoints,
		Regimes:              make([]RegimeSummary, regimes),
		Occupancy:            occupancy(draws),
		ChangepointEstimates: changepointModes(draws),
	}

	values := make([]float64, draws.Len())

	for j := range regimes {
		for g, rec := range draws.Records {
			values[g] = rec.Rates[j]
		}

		sort.Float64s(values)

		s.Regimes[j] = RegimeSummary{
			Regime:   j + 1,
			RateMean: stat.Mean(values, nil),
			RateLow:  stat.Quantile(intervalLow, stat.Empirical, values, nil),
			RateHigh: stat.Quantile(intervalHigh, stat.Empirical, values, nil),
		}
	}

	return s, nil
}

func occupancy(draws *Draws) [][]float64 {
	regimes := draws.Regimes()

	occ := make([][]float64, draws.N)
	for t := range occ {
		occ[t] = make([]float64, regimes)
	}

	for _, rec := range draws.Records {
		for t, j := range rec.Path {
			occ[t][j]++
		}
	}

	scale := 1 / float64(draws.Len())

	for t := range occ {
		for j := range occ[t] {
			occ[t][j] *= scale
		}
	}

	return occ
}

// changepointModes returns the most frequent first-entry month for each
// regime after the first, across retained draws.
func changepointModes(draws *Draws) []int {
	modes := make([]int, draws.Changepoints)

	for j := 1; j <= draws.Changepoints; j++ {
		counts := make(map[int]int)

		for _, rec := range draws.Records {
			for t, state := range rec.Path {
				if state == j {
					counts[t+1]++ // One-based month of first entry.

					break
				}
			}
		}

		best, bestCount := 0, 0

		for month, c := range counts {
			if c > bestCount || (c == bestCount && month < best) {
				best, bestCount = month, c
			}
		}

		modes[j-1] = best
	}

	return modes
}
