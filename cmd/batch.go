package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/AnyUserName/hueswap/internal/config"
	"github.com/AnyUserName/hueswap/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var batchFormat string

var batchCmd = &cobra.Command{
	Use:   "batch <input_dir>",
	Short: "Replace the background of every image in a directory",
	Long: `Scans input directory for images (png, jpg, jpeg, webp, gif, bmp, tiff),
estimates the key hue of each one independently and composites it over the
same background image.

Output mirrors the input tree: <out_dir>/<relpath without ext>.<format>.
Inputs that differ only by extension (a.png, a.jpg) keep it: a.png.<format>.`,
	Args: inputArgs(cobra.ExactArgs(1)),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "png", "output format extension")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	if e.cfg.Output == "" || e.cfg.Background == "" {
		return fmt.Errorf("%w: batch needs --output <dir> and --background", config.ErrInput)
	}

	// Resolve absolute paths.
	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("%w: resolve input path: %v", config.ErrInput, err)
	}
	absOutput, err := filepath.Abs(e.cfg.Output)
	if err != nil {
		return fmt.Errorf("%w: resolve output path: %v", config.ErrInput, err)
	}
	e.log.Debug("batch", zap.String("input", absInput), zap.String("output", absOutput),
		zap.String("format", batchFormat))

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	start := time.Now()
	results, err := e.pipeline(nil).RunDir(cmd.Context(), absInput, absOutput, e.cfg.Background, batchFormat)
	if len(results) > 0 {
		printBatchReport(results, time.Since(start))
		if rerr := e.writeReport(results); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}
	return errors.Join(err, e.finish())
}

func printBatchReport(results []report.Result, elapsed time.Duration) {
	r := report.Report{Results: results}
	r.ComputeStats()
	s := r.Stats

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║              hueswap batch complete              ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	share := float64(0)
	if s.TotalPixels > 0 {
		share = float64(s.KeyedPixels) / float64(s.TotalPixels) * 100
	}
	fmt.Printf("  Images:      %d\n", s.TotalJobs)
	if s.FailedJobs > 0 {
		fmt.Printf("  Failed:      %d\n", s.FailedJobs)
	}
	fmt.Printf("  Keyed:       %.1f%% of %d pixels\n", share, s.TotalPixels)
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()

	// Top 10 by keyed share.
	ok := make([]report.Result, 0, len(results))
	for _, res := range results {
		if !res.Failed() {
			ok = append(ok, res)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		return keyedShare(ok[i]) > keyedShare(ok[j])
	})
	n := len(ok)
	if n > 10 {
		n = 10
	}
	if n > 0 {
		fmt.Printf("  Top %d keyed (hue ± tolerance):\n", n)
		for _, it := range ok[:n] {
			fmt.Printf("    %-40s %5.1f%%  %3.0f° ± %.1f°\n",
				truncKey(it.Input, 40), keyedShare(it), it.Dominant.Hue, it.Dominant.Tolerance)
		}
		fmt.Println()
	}

	for _, res := range results {
		if res.Failed() {
			fmt.Printf("    ⚠ %s\n", res.Error)
		}
	}
}

func keyedShare(r report.Result) float64 {
	total := r.Counts.Keyed + r.Counts.Kept
	if total == 0 {
		return 0
	}
	return float64(r.Counts.Keyed) / float64(total) * 100
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
