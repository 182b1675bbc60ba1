package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/hueswap/internal/chroma"
	"github.com/AnyUserName/hueswap/internal/config"
	"github.com/AnyUserName/hueswap/internal/encoder"
	"github.com/AnyUserName/hueswap/internal/pipeline"
	"github.com/AnyUserName/hueswap/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// execute runs the command tree with args after restoring every flag to
// its default, since cobra keeps parsed values between executions.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.PersistentFlags(), c.Flags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				require.NoError(t, f.Value.Set(f.DefValue))
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
	rootCmd.SetArgs(args)
	return Execute(context.Background())
}

func writeRow(t *testing.T, path string, px ...color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, len(px), 1))
	for x, c := range px {
		img.SetNRGBA(x, 0, c)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

var (
	green = color.NRGBA{0, 255, 0, 255}
	red   = color.NRGBA{255, 0, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
)

func TestReplaceAndValidate(t *testing.T) {
	dir := t.TempDir()
	in := writeRow(t, filepath.Join(dir, "in.png"), green, green, red)
	bg := writeRow(t, filepath.Join(dir, "bg.png"), blue, blue, blue)
	out := filepath.Join(dir, "out.png")
	rep := filepath.Join(dir, "report.json")
	flame := filepath.Join(dir, "flame.html")

	err := execute(t, "-i", in, "-b", bg, "-o", out,
		"--strategy", "mode", "--tolerance", "20", "--report", rep, "--flame-html", flame)
	require.NoError(t, err)

	img, _, err := pipeline.Decode(out)
	require.NoError(t, err)
	require.Equal(t, blue, img.NRGBAAt(0, 0))
	require.Equal(t, blue, img.NRGBAAt(1, 0))
	require.Equal(t, red, img.NRGBAAt(2, 0))

	r, err := report.Read(rep)
	require.NoError(t, err)
	require.Len(t, r.Results, 1)
	require.Equal(t, "mode", r.Strategy)
	require.Equal(t, chroma.Dominant{Hue: 120, Tolerance: 20}, r.Results[0].Dominant)

	html, err := os.ReadFile(flame)
	require.NoError(t, err)
	require.Contains(t, string(html), "dominant_color")

	require.NoError(t, execute(t, "validate", rep))

	// Tamper with the output.
	writeRow(t, out, red, red, red)
	err = execute(t, "validate", rep)
	require.ErrorContains(t, err, "validation failed")
}

func TestBatchAndStats(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	writeRow(t, filepath.Join(in, "a.png"), green, green, red)
	writeRow(t, filepath.Join(in, "b.png"), red, green, green)
	bg := writeRow(t, filepath.Join(dir, "bg.png"), blue)
	out := filepath.Join(dir, "out")
	rep := filepath.Join(dir, "report.yaml")

	require.NoError(t, execute(t, "batch", in, "-b", bg, "-o", out, "--report", rep, "-w", "2"))

	r, err := report.Read(rep)
	require.NoError(t, err)
	require.Len(t, r.Results, 2)
	require.Equal(t, 2, r.Stats.TotalJobs)
	for _, res := range r.Results {
		require.False(t, res.Failed(), res.Error)
		require.True(t, res.Resized)
	}
	require.FileExists(t, filepath.Join(out, "a.png"))
	require.FileExists(t, filepath.Join(out, "b.png"))
	require.NoError(t, execute(t, "validate", rep))

	require.NoError(t, execute(t, "stats", filepath.Join(in, "a.png"), "-p", "50"))
}

func TestInputErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeRow(t, filepath.Join(dir, "in.png"), green)

	err := execute(t, "-i", in)
	require.ErrorIs(t, err, config.ErrInput)
	require.Equal(t, ExitInput, ExitCode(err))

	err = execute(t, "--no-such-flag")
	require.Equal(t, ExitInput, ExitCode(err))

	err = execute(t, "-i", in, "-o", "x.png", "-b", in, "--percentile", "150")
	require.Equal(t, ExitInput, ExitCode(err))

	err = execute(t, "-i", in, "-o", "x.png", "-b", in, "-p", "NaN")
	require.Equal(t, ExitInput, ExitCode(err))

	err = execute(t, "stats")
	require.Equal(t, ExitInput, ExitCode(err))

	err = execute(t, "-i", filepath.Join(dir, "missing.png"), "-o", filepath.Join(dir, "o.png"), "-b", in)
	require.Equal(t, ExitDecode, ExitCode(err))

	err = execute(t, "-i", in, "-o", filepath.Join(dir, "o.xyz"), "-b", in)
	require.Equal(t, ExitEncode, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	require.Equal(t, ExitOK, ExitCode(nil))
	require.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
	require.Equal(t, ExitInput, ExitCode(fmt.Errorf("x: %w", config.ErrInput)))
	require.Equal(t, ExitDecode, ExitCode(fmt.Errorf("x: %w", pipeline.ErrDecode)))
	require.Equal(t, ExitEstimation, ExitCode(fmt.Errorf("x: %w", chroma.ErrEmptyImage)))
	require.Equal(t, ExitEncode, ExitCode(fmt.Errorf("x: %w", encoder.ErrEncode)))
}

func TestValidateReport(t *testing.T) {
	r := report.New("percentile", 30, 1)
	r.Version = 2
	r.Results = []report.Result{
		{Output: "", Width: 2, Height: 1, Counts: chroma.Counts{Keyed: 1, Kept: 0}},
		{Input: "broken.png", Error: "decode failed"},
	}
	errs := validateReport(r)
	require.Contains(t, errs, "unsupported report version: 2")
	require.Contains(t, errs, "result[0]: missing hash")
	require.Contains(t, errs, "result[0]: missing output")
	require.Contains(t, errs, "result[0]: pixel counts 1+0 do not cover 2x1")
	require.Contains(t, errs, "stats.total_jobs mismatch: 0 != 2")
}

func TestFormatHelpers(t *testing.T) {
	require.Equal(t, "512 B", formatBytes(512))
	require.Equal(t, "1.5 KB", formatBytes(1536))
	require.Equal(t, "2.0 MB", formatBytes(2<<20))
	require.Equal(t, "short", truncKey("short", 10))
	require.Equal(t, "...6789", truncKey("0123456789", 7))
}
