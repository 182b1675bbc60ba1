package cmd

import (
	"fmt"
	"os"

	"github.com/AnyUserName/hueswap/internal/config"
	"github.com/AnyUserName/hueswap/internal/hasher"
	"github.com/AnyUserName/hueswap/internal/report"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <report_path>",
	Short: "Validate a run report and check its outputs are unchanged on disk",
	Args:  inputArgs(cobra.ExactArgs(1)),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	r, err := report.Read(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInput, err)
	}

	errors := validateReport(r)
	if len(errors) == 0 {
		fmt.Println("  ✓ Report is valid")
		fmt.Printf("  ✓ %d results — all outputs present and unchanged\n", len(r.Results))
		return nil
	}

	fmt.Printf("  ✗ Report has %d error(s):\n", len(errors))
	for _, e := range errors {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errors))
}

func validateReport(r *report.Report) []string {
	var errs []string

	// Check version.
	if r.Version != report.SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}

	seen := map[string]bool{}
	for i, res := range r.Results {
		if res.Failed() {
			continue
		}
		if res.Width <= 0 || res.Height <= 0 {
			errs = append(errs, fmt.Sprintf("result[%d]: invalid dimensions %dx%d", i, res.Width, res.Height))
		}
		if res.Counts.Keyed+res.Counts.Kept != res.Width*res.Height {
			errs = append(errs, fmt.Sprintf("result[%d]: pixel counts %d+%d do not cover %dx%d",
				i, res.Counts.Keyed, res.Counts.Kept, res.Width, res.Height))
		}
		if res.Dominant.Tolerance < 0 {
			errs = append(errs, fmt.Sprintf("result[%d]: negative tolerance %g", i, res.Dominant.Tolerance))
		}
		if res.Hash == "" {
			errs = append(errs, fmt.Sprintf("result[%d]: missing hash", i))
		}
		if res.Output == "" {
			errs = append(errs, fmt.Sprintf("result[%d]: missing output", i))
			continue
		}

		// Check duplicate outputs.
		if seen[res.Output] {
			errs = append(errs, fmt.Sprintf("result[%d]: duplicate output %q", i, res.Output))
		}
		seen[res.Output] = true

		// Check file exists and is unchanged.
		info, err := os.Stat(res.Output)
		if err != nil {
			errs = append(errs, fmt.Sprintf("result[%d]: output not found: %s", i, res.Output))
			continue
		}
		if res.Size > 0 && info.Size() != res.Size {
			errs = append(errs, fmt.Sprintf("result[%d]: size mismatch: report=%d, disk=%d",
				i, res.Size, info.Size()))
		}
		if res.Hash != "" {
			hash, err := hasher.ContentHashFile(res.Output, len(res.Hash))
			if err != nil {
				errs = append(errs, fmt.Sprintf("result[%d]: hash %s: %v", i, res.Output, err))
			} else if hash != res.Hash {
				errs = append(errs, fmt.Sprintf("result[%d]: hash mismatch: report=%s, disk=%s", i, res.Hash, hash))
			}
		}
	}

	// Verify stats consistency.
	want := report.Report{Results: r.Results}
	want.ComputeStats()
	if r.Stats.TotalJobs != want.Stats.TotalJobs {
		errs = append(errs, fmt.Sprintf("stats.total_jobs mismatch: %d != %d", r.Stats.TotalJobs, want.Stats.TotalJobs))
	}
	if r.Stats.KeyedPixels != want.Stats.KeyedPixels {
		errs = append(errs, fmt.Sprintf("stats.keyed_pixels mismatch: %d != %d", r.Stats.KeyedPixels, want.Stats.KeyedPixels))
	}

	return errs
}
