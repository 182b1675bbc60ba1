package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AnyUserName/hueswap/internal/chroma"
	"github.com/AnyUserName/hueswap/internal/pipeline"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <image>",
	Short: "Display hue statistics and the estimated key hue of an image",
	Args:  inputArgs(cobra.ExactArgs(1)),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	img, format, err := pipeline.Decode(args[0])
	if err != nil {
		return err
	}
	hg, err := chroma.HueHistogram(cmd.Context(), img, e.cfg.Workers)
	if err != nil {
		return fmt.Errorf("estimate %s: %w", args[0], err)
	}

	est := e.cfg.Estimator()
	est.Strategy = chroma.StrategyPercentile
	byPercentile, err := chroma.Reduce(hg, est)
	if err != nil {
		return fmt.Errorf("estimate %s: %w", args[0], err)
	}
	est.Strategy = chroma.StrategyMode
	byMode, err := chroma.Reduce(hg, est)
	if err != nil {
		return fmt.Errorf("estimate %s: %w", args[0], err)
	}

	b := img.Bounds()
	fmt.Println()
	fmt.Printf("  Image:            %s (%s, %dx%d)\n", args[0], format, b.Dx(), b.Dy())
	printHueStats(hg, byPercentile.Summary)
	fmt.Printf("  Percentile p%-4g   hue %3.0f° ± %.2f° (stddev)\n",
		e.cfg.Percentile, byPercentile.Hue, byPercentile.Tolerance)
	fmt.Printf("  Mode              hue %3.0f° ± %.2f° (fixed)\n", byMode.Hue, byMode.Tolerance)
	fmt.Println()
	return e.finish()
}

func printHueStats(hg *chroma.Histogram, s chroma.Summary) {
	fmt.Printf("  Pixels:           %d\n", s.Count)
	fmt.Printf("  Hue (degrees):    min %d  avg %.1f  max %d  stddev %.2f\n", s.Min, s.Mean, s.Max, s.StdDev)
	fmt.Printf("  Percentiles:      p50 %d  p90 %d  p99 %d  p99.9 %d\n", s.P50, s.P90, s.P99, s.P999)
	fmt.Println()

	// Most populated buckets.
	type bucket struct {
		hue   int
		count uint64
	}
	var buckets []bucket
	for h, c := range hg {
		if c > 0 {
			buckets = append(buckets, bucket{h, c})
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].count > buckets[j].count })
	if len(buckets) > 5 {
		buckets = buckets[:5]
	}
	fmt.Println("  Top hues:")
	for _, bk := range buckets {
		share := float64(bk.count) / float64(s.Count)
		fmt.Printf("    %3d°  %6.2f%%  %s\n", bk.hue, share*100, strings.Repeat("█", int(share*40+0.5)))
	}
	fmt.Println()
}
