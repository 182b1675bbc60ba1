package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/AnyUserName/hueswap/internal/chroma"
	"github.com/AnyUserName/hueswap/internal/config"
	"github.com/AnyUserName/hueswap/internal/encoder"
	"github.com/AnyUserName/hueswap/internal/logging"
	"github.com/AnyUserName/hueswap/internal/pipeline"
	"github.com/AnyUserName/hueswap/internal/profile"
	"github.com/AnyUserName/hueswap/internal/report"
	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	version    = "0.1.0"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "hueswap",
	Short: "Replace a green-screen background without naming the key color",
	Long: `hueswap — finds the dominant background hue of an image from its hue
histogram and swaps every pixel of that hue for the matching pixel of a
background image.

The key hue is either a percentile of the hue distribution with its standard
deviation as tolerance (default), or the most frequent hue with a fixed
tolerance (--strategy mode). Pixels with saturation below 0.4 or value below
0.1 are never replaced.`,
	Example: `  hueswap -i person.png -b beach.jpg -o out.png
  hueswap -i person.png -b beach.jpg -o out.png --strategy mode --tolerance 25
  hueswap -i person.png -b beach.jpg -o out.png --profile --flame-html flame.html`,
	Version:       version,
	Args:          inputArgs(cobra.NoArgs),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runReplace,
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.StringP("output", "o", "", "output image (or directory for batch)")
	pf.StringP("background", "b", "", "background image to display")
	pf.String("strategy", chroma.StrategyPercentile.String(), "hue estimation strategy: percentile or mode")
	pf.Float64P("percentile", "p", chroma.DefaultPercentile, "histogram percentile used as the key hue (percentile strategy)")
	pf.Float64("tolerance", chroma.DefaultTolerance, "fixed hue tolerance in degrees (mode strategy)")
	pf.String("fit", config.FitFill, "background resize when sizes differ: fill (crop) or stretch")
	pf.IntP("workers", "w", 0, "parallel workers (0 = NumCPU)")
	pf.IntP("quality", "q", 90, "quality 1-100 for lossy output formats")
	pf.String("report", "", "write a JSON (or .yaml) run report")
	pf.Bool("profile", false, "print profiling information to stdout")
	pf.String("flame-html", "", "write a flamegraph of the run to this HTML file")

	rootCmd.Flags().StringP("input", "i", "", "input image")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrInput, err)
	})
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"hueswap %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// inputArgs marks positional argument errors as input errors.
func inputArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInput, err)
		}
		return nil
	}
}

// env bundles what every command needs after flag parsing.
type env struct {
	cfg  *config.Config
	log  *zap.Logger
	prof *profile.Profiler
}

func setup(cmd *cobra.Command) (*env, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	e := &env{cfg: cfg, log: log}
	if cfg.Profile || cfg.FlameHTML != "" {
		e.prof = profile.New()
	}
	log.Debug("configuration", zap.Any("config", cfg))
	return e, nil
}

func (e *env) pipeline(onEstimate func(pipeline.Job, chroma.Estimation)) *pipeline.Pipeline {
	return pipeline.New(pipeline.Config{
		Estimator:  e.cfg.Estimator(),
		Fit:        e.cfg.Fit,
		Quality:    e.cfg.Quality,
		Workers:    e.cfg.Workers,
		Logger:     e.log,
		Profiler:   e.prof,
		OnEstimate: onEstimate,
	})
}

// finish dumps profiling output and flushes the logger.
func (e *env) finish() error {
	defer logging.Sync(e.log)
	if e.prof == nil {
		return nil
	}
	if e.cfg.Profile {
		fmt.Println()
		if err := e.prof.WriteText(os.Stdout); err != nil {
			return err
		}
	}
	if e.cfg.FlameHTML != "" {
		var buf bytes.Buffer
		if err := e.prof.WriteHTML(&buf); err != nil {
			return fmt.Errorf("render flamegraph: %w", err)
		}
		if err := renameio.WriteFile(e.cfg.FlameHTML, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("%w: write flamegraph: %w", encoder.ErrEncode, err)
		}
		e.log.Debug("wrote flamegraph", zap.String("path", e.cfg.FlameHTML))
	}
	return nil
}

func (e *env) writeReport(results []report.Result) error {
	if e.cfg.Report == "" {
		return nil
	}
	r := report.New(e.cfg.Strategy, e.cfg.Percentile, e.cfg.Workers)
	r.Results = append(r.Results, results...)
	if err := report.Write(r, e.cfg.Report); err != nil {
		return fmt.Errorf("%w: write report: %w", encoder.ErrEncode, err)
	}
	return nil
}

func runReplace(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := e.cfg.RequirePaths(); err != nil {
		return err
	}
	start := time.Now()

	p := e.pipeline(func(_ pipeline.Job, est chroma.Estimation) {
		fmt.Printf("Using hue: %g (dev %g)\n", est.Hue, est.Tolerance)
	})
	res, err := p.Run(cmd.Context(), pipeline.Job{
		Input:      e.cfg.Input,
		Background: e.cfg.Background,
		Output:     e.cfg.Output,
	})
	if err != nil {
		return errors.Join(err, e.finish())
	}
	printResult(res, time.Since(start))

	if err := e.writeReport([]report.Result{res}); err != nil {
		return err
	}
	return e.finish()
}

func printResult(r report.Result, elapsed time.Duration) {
	total := r.Counts.Keyed + r.Counts.Kept
	share := float64(0)
	if total > 0 {
		share = float64(r.Counts.Keyed) / float64(total) * 100
	}
	fmt.Println()
	fmt.Printf("  Output:      %s (%s)\n", r.Output, formatBytes(r.Size))
	fmt.Printf("  Size:        %dx%d", r.Width, r.Height)
	if r.Resized {
		fmt.Print("  (background resized)")
	}
	fmt.Println()
	fmt.Printf("  Keyed:       %d of %d pixels (%.1f%%)\n", r.Counts.Keyed, total, share)
	fmt.Printf("  Hash:        %s\n", r.Hash)
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
