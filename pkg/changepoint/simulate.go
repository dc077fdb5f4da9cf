package changepoint

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Simulate generates a synthetic Poisson count series with known regimes:
// one segment per rate, with the given lengths. Used for recovery exercises
// and sampler validation.
func Simulate(seed int64, rates []float64, lengths []int) ([]int, error) {
	if len(rates) == 0 || len(rates) != len(lengths) {
		return nil, fmt.Errorf("%w: need one segment length per rate, got %d rates and %d lengths",
			ErrInvalidConfig, len(rates), len(lengths))
	}

	for i, r := range rates {
		if r <= 0 {
			return nil, fmt.Errorf("%w: segment rate %v at index %d must be positive", ErrInvalidConfig, r, i)
		}

		if lengths[i] <= 0 {
			return nil, fmt.Errorf("%w: segment length %d at index %d must be positive", ErrInvalidConfig, lengths[i], i)
		}
	}

	src := rand.NewPCG(uint64(seed), uint64(seed)+1)

	var counts []int

	for i, r := range rates {
		p := distuv.Poisson{Lambda: r, Src: src}

		for range lengths[i] {
			counts = append(counts, int(p.Rand()))
		}
	}

	return counts, nil
}
