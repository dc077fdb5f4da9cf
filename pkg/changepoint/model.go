package changepoint

import "fmt"

// Model pairs one observation sequence with a fixed number of changepoints
// and the prior hyperparameters. A model with m changepoints has m+1 regimes.
type Model struct {
	seq    *Sequence
	m      int
	priors Priors
}

// NewModel validates and constructs a model. The changepoint count must be
// non-negative and strictly smaller than the series length; m >= n is
// structurally unidentifiable.
func NewModel(seq *Sequence, changepoints int, priors Priors) (*Model, error) {
	if seq == nil {
		return nil, fmt.Errorf("%w: nil sequence", ErrInvalidInput)
	}

	if changepoints < 0 {
		return nil, fmt.Errorf("%w: series %q: changepoint count %d is negative", ErrInvalidInput, seq.ID(), changepoints)
	}

	if changepoints >= seq.Len() {
		return nil, fmt.Errorf("%w: series %q: %d changepoints need at least %d observations, have %d",
			ErrInvalidInput, seq.ID(), changepoints, changepoints+1, seq.Len())
	}

	err := priors.Validate()
	if err != nil {
		return nil, fmt.Errorf("series %q model m=%d: %w", seq.ID(), changepoints, err)
	}

	return &Model{seq: seq, m: changepoints, priors: priors}, nil
}

// Sequence returns the observation sequence.
func (m *Model) Sequence() *Sequence { return m.seq }

// Changepoints returns the number of changepoints.
func (m *Model) Changepoints() int { return m.m }

// Regimes returns the number of regimes, changepoints + 1.
func (m *Model) Regimes() int { return m.m + 1 }

// Priors returns the prior hyperparameters.
func (m *Model) Priors() Priors { return m.priors }
