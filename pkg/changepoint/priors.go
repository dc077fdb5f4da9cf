package changepoint

import "fmt"

// Default prior hyperparameters. The Gamma(1, 1) rate prior and the
// Beta(1, 1) duration prior are weakly informative.
const (
	DefaultRateShape = 1.0
	DefaultRateRate  = 1.0
	DefaultStayAlpha = 1.0
	DefaultStayBeta  = 1.0
)

// Priors holds the prior hyperparameters for one model fit.
//
// Each regime rate carries an independent Gamma(RateShape, RateRate) prior,
// parameterized by shape and rate. Each non-terminal state's self-transition
// probability carries a Beta(StayAlpha, StayBeta) prior; larger StayAlpha
// relative to StayBeta encodes longer expected regime durations.
type Priors struct {
	RateShape float64 // Gamma shape c0 for regime rates.
	RateRate  float64 // Gamma rate d0 for regime rates.
	StayAlpha float64 // Beta alpha for self-transition probabilities.
	StayBeta  float64 // Beta beta for self-transition probabilities.
}

// DefaultPriors returns the weakly informative default hyperparameters.
func DefaultPriors() Priors {
	return Priors{
		RateShape: DefaultRateShape,
		RateRate:  DefaultRateRate,
		StayAlpha: DefaultStayAlpha,
		StayBeta:  DefaultStayBeta,
	}
}

// Validate checks that every hyperparameter is strictly positive.
func (p Priors) Validate() error {
	if p.RateShape <= 0 {
		return fmt.Errorf("%w: rate prior shape must be positive, got %v", ErrInvalidConfig, p.RateShape)
	}

	if p.RateRate <= 0 {
		return fmt.Errorf("%w: rate prior rate must be positive, got %v", ErrInvalidConfig, p.RateRate)
	}

	if p.StayAlpha <= 0 {
		return fmt.Errorf("%w: stay prior alpha must be positive, got %v", ErrInvalidConfig, p.StayAlpha)
	}

	if p.StayBeta <= 0 {
		return fmt.Errorf("%w: stay prior beta must be positive, got %v", ErrInvalidConfig, p.StayBeta)
	}

	return nil
}
