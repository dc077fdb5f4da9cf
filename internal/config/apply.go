package config

import "github.com/Sumatoshi-tech/changefang/pkg/changepoint"

// ChangepointPriors converts the prior section to estimator priors.
func (c *Config) ChangepointPriors() changepoint.Priors {
	return changepoint.Priors{
		RateShape: c.Priors.RateShape,
		RateRate:  c.Priors.RateRate,
		StayAlpha: c.Priors.StayAlpha,
		StayBeta:  c.Priors.StayBeta,
	}
}

// SamplerOptions converts the sampler section to Gibbs engine options.
func (c *Config) SamplerOptions() changepoint.Options {
	return changepoint.Options{
		Burnin:  c.Sampler.Burnin,
		Samples: c.Sampler.Samples,
		Thin:    c.Sampler.Thin,
		Seed:    c.Sampler.Seed,
	}
}

// ChibOptions converts the chib section to marginal likelihood options.
// The reduced run reuses the sampler seed so a fit is one deterministic unit.
func (c *Config) ChibOptions() changepoint.ChibOptions {
	policy := changepoint.PolicyPosteriorMean
	if c.Chib.Policy == ChibPolicyMax {
		policy = changepoint.PolicyMaxPosteriorDraw
	}

	return changepoint.ChibOptions{
		Policy:         policy,
		ReducedBurnin:  c.Chib.ReducedBurnin,
		ReducedSamples: c.Chib.ReducedSamples,
		Seed:           c.Sampler.Seed,
	}
}
