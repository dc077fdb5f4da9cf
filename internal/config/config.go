package config

import "errors"

// Config is the top-level configuration struct for changefang.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Priors  PriorsConfig  `mapstructure:"priors"`
	Sampler SamplerConfig `mapstructure:"sampler"`
	Chib    ChibConfig    `mapstructure:"chib"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Output  OutputConfig  `mapstructure:"output"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// PriorsConfig holds the Gamma rate prior and Beta persistence prior.
type PriorsConfig struct {
	RateShape float64 `mapstructure:"rate_shape"`
	RateRate  float64 `mapstructure:"rate_rate"`
	StayAlpha float64 `mapstructure:"stay_alpha"`
	StayBeta  float64 `mapstructure:"stay_beta"`
}

// SamplerConfig holds the Gibbs sampling schedule.
type SamplerConfig struct {
	Burnin  int   `mapstructure:"burnin"`
	Samples int   `mapstructure:"samples"`
	Thin    int   `mapstructure:"thin"`
	Seed    int64 `mapstructure:"seed"`

	// Models lists the candidate changepoint counts to fit per series.
	Models []int `mapstructure:"models"`
}

// ChibConfig holds the marginal likelihood estimation schedule.
type ChibConfig struct {
	Policy         string `mapstructure:"policy"`
	ReducedBurnin  int    `mapstructure:"reduced_burnin"`
	ReducedSamples int    `mapstructure:"reduced_samples"`
}

// RunnerConfig holds parallelism knobs.
type RunnerConfig struct {
	Workers int `mapstructure:"workers"`
}

// OutputConfig holds report and artifact destinations.
type OutputConfig struct {
	Format    string `mapstructure:"format"`
	Dir       string `mapstructure:"dir"`
	SaveDraws bool   `mapstructure:"save_draws"`
	DrawCodec string `mapstructure:"draw_codec"`
	Plot      bool   `mapstructure:"plot"`
}

// MetricsConfig holds the Prometheus scrape endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidPrior indicates a prior hyperparameter is not positive.
	ErrInvalidPrior = errors.New("priors values must be positive")
	// ErrInvalidBurnin indicates the burnin is negative.
	ErrInvalidBurnin = errors.New("sampler.burnin must be non-negative")
	// ErrInvalidSamples indicates the sample count is not positive.
	ErrInvalidSamples = errors.New("sampler.samples must be positive")
	// ErrInvalidThin indicates the thinning interval is invalid.
	ErrInvalidThin = errors.New("sampler.thin must be positive and divide sampler.samples")
	// ErrInvalidSeed indicates the seed is negative.
	ErrInvalidSeed = errors.New("sampler.seed must be non-negative")
	// ErrNoModels indicates the candidate model list is empty.
	ErrNoModels = errors.New("sampler.models must list at least one changepoint count")
	// ErrInvalidModel indicates a candidate changepoint count is negative.
	ErrInvalidModel = errors.New("sampler.models entries must be non-negative")
	// ErrInvalidChibSchedule indicates the reduced run schedule is invalid.
	ErrInvalidChibSchedule = errors.New("chib.reduced_burnin must be non-negative and chib.reduced_samples positive")
	// ErrInvalidChibPolicy indicates an unknown evaluation point policy.
	ErrInvalidChibPolicy = errors.New("chib.policy must be \"mean\" or \"max\"")
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("runner.workers must be non-negative")
	// ErrInvalidOutputFormat indicates an unknown report format.
	ErrInvalidOutputFormat = errors.New("output.format must be \"json\" or \"yaml\"")
	// ErrInvalidDrawCodec indicates an unknown draw persistence codec.
	ErrInvalidDrawCodec = errors.New("output.draw_codec must be \"json\", \"gob\" or \"lz4\"")
	// ErrMissingMetricsAddr indicates metrics are enabled without an address.
	ErrMissingMetricsAddr = errors.New("metrics.addr must be set when metrics.enabled is true")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	priorsErr := c.validatePriors()
	if priorsErr != nil {
		return priorsErr
	}

	samplerErr := c.validateSampler()
	if samplerErr != nil {
		return samplerErr
	}

	return c.validateOutputs()
}

func (c *Config) validatePriors() error {
	if c.Priors.RateShape <= 0 || c.Priors.RateRate <= 0 {
		return ErrInvalidPrior
	}

	if c.Priors.StayAlpha <= 0 || c.Priors.StayBeta <= 0 {
		return ErrInvalidPrior
	}

	return nil
}

func (c *Config) validateSampler() error {
	if c.Sampler.Burnin < 0 {
		return ErrInvalidBurnin
	}

	if c.Sampler.Samples <= 0 {
		return ErrInvalidSamples
	}

	if c.Sampler.Thin <= 0 || c.Sampler.Samples%c.Sampler.Thin != 0 {
		return ErrInvalidThin
	}

	if c.Sampler.Seed < 0 {
		return ErrInvalidSeed
	}

	if len(c.Sampler.Models) == 0 {
		return ErrNoModels
	}

	for _, m := range c.Sampler.Models {
		if m < 0 {
			return ErrInvalidModel
		}
	}

	if c.Chib.ReducedBurnin < 0 || c.Chib.ReducedSamples <= 0 {
		return ErrInvalidChibSchedule
	}

	if c.Chib.Policy != ChibPolicyMean && c.Chib.Policy != ChibPolicyMax {
		return ErrInvalidChibPolicy
	}

	return nil
}

func (c *Config) validateOutputs() error {
	if c.Runner.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Output.Format != "json" && c.Output.Format != "yaml" {
		return ErrInvalidOutputFormat
	}

	switch c.Output.DrawCodec {
	case "json", "gob", "lz4":
	default:
		return ErrInvalidDrawCodec
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return ErrMissingMetricsAddr
	}

	return nil
}

// Evaluation point policies accepted by chib.policy.
const (
	ChibPolicyMean = "mean"
	ChibPolicyMax  = "max"
)
