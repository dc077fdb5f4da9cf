package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".changefang"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for changefang settings.
const envPrefix = "CHANGEFANG"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Default values applied before file and environment overrides.
const (
	DefaultPriorRateShape = 1.0
	DefaultPriorRateRate  = 1.0
	DefaultPriorStayAlpha = 1.0
	DefaultPriorStayBeta  = 1.0

	DefaultSamplerBurnin  = 5000
	DefaultSamplerSamples = 10000
	DefaultSamplerThin    = 10
	DefaultSamplerSeed    = 1

	DefaultChibPolicy         = ChibPolicyMean
	DefaultChibReducedBurnin  = 200
	DefaultChibReducedSamples = 1000

	DefaultRunnerWorkers = 0

	DefaultOutputFormat    = "json"
	DefaultOutputDir       = "changefang-out"
	DefaultOutputSaveDraws = false
	DefaultOutputDrawCodec = "lz4"
	DefaultOutputPlot      = false

	DefaultMetricsEnabled = false
	DefaultMetricsAddr    = ":9464"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("priors.rate_shape", DefaultPriorRateShape)
	viperCfg.SetDefault("priors.rate_rate", DefaultPriorRateRate)
	viperCfg.SetDefault("priors.stay_alpha", DefaultPriorStayAlpha)
	viperCfg.SetDefault("priors.stay_beta", DefaultPriorStayBeta)

	viperCfg.SetDefault("sampler.burnin", DefaultSamplerBurnin)
	viperCfg.SetDefault("sampler.samples", DefaultSamplerSamples)
	viperCfg.SetDefault("sampler.thin", DefaultSamplerThin)
	viperCfg.SetDefault("sampler.seed", DefaultSamplerSeed)
	viperCfg.SetDefault("sampler.models", []int{0, 1, 2})

	viperCfg.SetDefault("chib.policy", DefaultChibPolicy)
	viperCfg.SetDefault("chib.reduced_burnin", DefaultChibReducedBurnin)
	viperCfg.SetDefault("chib.reduced_samples", DefaultChibReducedSamples)

	viperCfg.SetDefault("runner.workers", DefaultRunnerWorkers)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.dir", DefaultOutputDir)
	viperCfg.SetDefault("output.save_draws", DefaultOutputSaveDraws)
	viperCfg.SetDefault("output.draw_codec", DefaultOutputDrawCodec)
	viperCfg.SetDefault("output.plot", DefaultOutputPlot)

	viperCfg.SetDefault("metrics.enabled", DefaultMetricsEnabled)
	viperCfg.SetDefault("metrics.addr", DefaultMetricsAddr)
}
