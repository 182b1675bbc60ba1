package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/hueswap/internal/chroma"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "percentile", cfg.Strategy)
	require.Equal(t, 30.0, cfg.Percentile)
	require.Equal(t, 20.0, cfg.Tolerance)
	require.Equal(t, FitFill, cfg.Fit)
	require.Equal(t, 90, cfg.Quality)

	est := cfg.Estimator()
	require.Equal(t, chroma.StrategyPercentile, est.Strategy)
	require.Equal(t, 30.0, est.Percentile)
}

func TestLoad_FileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hueswap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strategy: mode
tolerance: 12.5
background: bg.png
fit: stretch
`), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("input", "i", "", "")
	fs.Float64("tolerance", 20, "")
	require.NoError(t, fs.Parse([]string{"-i", "in.png"}))

	v := viper.New()
	require.NoError(t, v.BindPFlags(fs))

	cfg, err := Load(v, path)
	require.NoError(t, err)
	require.Equal(t, "in.png", cfg.Input)
	require.Equal(t, "bg.png", cfg.Background)
	require.Equal(t, 12.5, cfg.Tolerance, "file beats an unchanged flag default")
	require.Equal(t, FitStretch, cfg.Fit)
	require.Equal(t, chroma.StrategyMode, cfg.Estimator().Strategy)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, ErrInput)
}

func TestValidate(t *testing.T) {
	base := Config{Strategy: "percentile", Percentile: 30, Tolerance: 20, Fit: FitFill, Quality: 90}
	require.NoError(t, base.Validate())

	for name, mutate := range map[string]func(*Config){
		"strategy":       func(c *Config) { c.Strategy = "median" },
		"percentile":     func(c *Config) { c.Percentile = 101 },
		"percentile NaN": func(c *Config) { c.Percentile = math.NaN() },
		"tolerance":      func(c *Config) { c.Tolerance = -1 },
		"fit":            func(c *Config) { c.Fit = "tile" },
		"workers":        func(c *Config) { c.Workers = -2 },
		"quality":        func(c *Config) { c.Quality = 0 },
	} {
		c := base
		mutate(&c)
		require.ErrorIs(t, c.Validate(), ErrInput, name)
	}
}

func TestRequirePaths(t *testing.T) {
	c := Config{Input: "a.png"}
	err := c.RequirePaths()
	require.ErrorIs(t, err, ErrInput)
	require.Contains(t, err.Error(), "--output, --background")

	c.Output, c.Background = "b.png", "c.png"
	require.NoError(t, c.RequirePaths())
}
