package changepoint

import "errors"

// Sentinel errors for input, configuration, and numerical failures.
var (
	// ErrInvalidInput indicates an unusable observation sequence: empty,
	// containing negative counts, or with more regimes than observations.
	ErrInvalidInput = errors.New("invalid observation sequence")

	// ErrInvalidConfig indicates non-positive prior hyperparameters or an
	// inconsistent sampler schedule.
	ErrInvalidConfig = errors.New("invalid sampler configuration")

	// ErrDegenerateLikelihood indicates that every state received exactly
	// zero filtered probability at some time step. This is impossible under
	// a well-posed model and signals a prior/data mismatch.
	ErrDegenerateLikelihood = errors.New("degenerate likelihood")

	// ErrMarginalLikelihoodUnstable indicates that Chib's estimator failed
	// to produce a finite log marginal likelihood at the chosen evaluation
	// point.
	ErrMarginalLikelihoodUnstable = errors.New("marginal likelihood estimate unstable")
)
