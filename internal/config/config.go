package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/AnyUserName/hueswap/internal/chroma"
	"github.com/spf13/viper"
)

// ErrInput marks missing or invalid arguments.
var ErrInput = errors.New("invalid input")

// Fit modes for backgrounds whose size differs from the source.
const (
	FitFill    = "fill"
	FitStretch = "stretch"
)

// Config is the merged result of flags, environment and the config file.
type Config struct {
	Input      string  `mapstructure:"input"`
	Output     string  `mapstructure:"output"`
	Background string  `mapstructure:"background"`
	Strategy   string  `mapstructure:"strategy"`
	Percentile float64 `mapstructure:"percentile"`
	Tolerance  float64 `mapstructure:"tolerance"`
	Fit        string  `mapstructure:"fit"`
	Workers    int     `mapstructure:"workers"`
	Quality    int     `mapstructure:"quality"`
	Report     string  `mapstructure:"report"`
	Profile    bool    `mapstructure:"profile"`
	FlameHTML  string  `mapstructure:"flame-html"`
	Verbose    bool    `mapstructure:"verbose"`
}

// Load resolves configuration from, in increasing precedence: defaults,
// the YAML file at configPath (if any), HUESWAP_* environment variables,
// and flags already bound to v.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("hueswap")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read config file: %v", ErrInput, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", ErrInput, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("strategy", chroma.StrategyPercentile.String())
	v.SetDefault("percentile", chroma.DefaultPercentile)
	v.SetDefault("tolerance", chroma.DefaultTolerance)
	v.SetDefault("fit", FitFill)
	v.SetDefault("workers", 0)
	v.SetDefault("quality", 90)
}

// Validate checks value ranges. It does not require any paths.
func (c *Config) Validate() error {
	if _, err := chroma.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInput, err)
	}
	if math.IsNaN(c.Percentile) || c.Percentile < 0 || c.Percentile > 100 {
		return fmt.Errorf("%w: percentile %v out of range [0, 100]", ErrInput, c.Percentile)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must not be negative", ErrInput)
	}
	switch c.Fit {
	case FitFill, FitStretch:
	default:
		return fmt.Errorf("%w: unknown fit %q (want %s or %s)", ErrInput, c.Fit, FitFill, FitStretch)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInput)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: quality %d out of range [1, 100]", ErrInput, c.Quality)
	}
	return nil
}

// RequirePaths fails if input, output or background is empty.
func (c *Config) RequirePaths() error {
	var missing []string
	if c.Input == "" {
		missing = append(missing, "--input")
	}
	if c.Output == "" {
		missing = append(missing, "--output")
	}
	if c.Background == "" {
		missing = append(missing, "--background")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required flag(s) %s not set", ErrInput, strings.Join(missing, ", "))
	}
	return nil
}

// Estimator returns the hue estimator settings.
func (c *Config) Estimator() chroma.EstimatorConfig {
	s, _ := chroma.ParseStrategy(c.Strategy)
	return chroma.EstimatorConfig{
		Strategy:   s,
		Percentile: c.Percentile,
		Tolerance:  c.Tolerance,
		Workers:    c.Workers,
	}
}
