package chroma

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestComposite_GreenOverBlue(t *testing.T) {
	ctx := context.Background()
	src := newImage(2, 1, green, red)
	bg := newImage(2, 1, blue, blue)

	// Estimate from the green plate alone.
	plate := src.SubImage(image.Rect(0, 0, 1, 1)).(*image.NRGBA)
	est, err := Estimate(ctx, plate, EstimatorConfig{Strategy: StrategyMode, Tolerance: 20})
	require.NoError(t, err)
	require.Equal(t, 120.0, est.Hue)

	out, counts, err := Composite(ctx, src, bg, est.Dominant, 1)
	require.NoError(t, err)
	require.Equal(t, blue, out.NRGBAAt(0, 0))
	require.Equal(t, red, out.NRGBAAt(1, 0))
	require.Equal(t, Counts{Keyed: 1, Kept: 1}, counts)
}

func TestComposite_PassThroughLowSaturationAndValue(t *testing.T) {
	black := color.NRGBA{0, 0, 0, 255}
	gray := color.NRGBA{128, 128, 128, 255}
	dimGreen := color.NRGBA{0, 20, 0, 255}
	src := newImage(3, 1, black, gray, dimGreen)
	bg := solid(3, 1, blue)

	// Black and gray have hue 0, dim green has hue 120; all match their key.
	for _, d := range []Dominant{{Hue: 0, Tolerance: 20}, {Hue: 120, Tolerance: 20}} {
		out, counts, err := Composite(context.Background(), src, bg, d, 1)
		require.NoError(t, err)
		require.Equal(t, src.Pix, out.Pix)
		require.Zero(t, counts.Keyed)
	}
}

func TestComposite_ExactMatchCollapse(t *testing.T) {
	ctx := context.Background()
	plate := newImage(2, 1, green, color.NRGBA{0, 128, 0, 255})
	est, err := Estimate(ctx, plate, EstimatorConfig{Percentile: 30})
	require.NoError(t, err)
	require.Zero(t, est.Tolerance)

	nearGreen := color.NRGBA{0, 255, 40, 255} // hue ~121.3
	src := newImage(4, 1, green, nearGreen, color.NRGBA{0, 128, 0, 255}, red)
	bg := solid(4, 1, blue)

	out, counts, err := Composite(ctx, src, bg, est.Dominant, 1)
	require.NoError(t, err)
	require.Equal(t, blue, out.NRGBAAt(0, 0))
	require.Equal(t, nearGreen, out.NRGBAAt(1, 0))
	require.Equal(t, blue, out.NRGBAAt(2, 0))
	require.Equal(t, red, out.NRGBAAt(3, 0))
	require.Equal(t, 2, counts.Keyed)
}

// The estimate is a whole-degree bucket while the key test uses the exact
// pixel hue, so a zero tolerance misses a plate whose hue is fractional.
func TestComposite_FractionalHueNeedsTolerance(t *testing.T) {
	ctx := context.Background()
	teal := color.NRGBA{30, 200, 60, 255}
	plate := solid(3, 2, teal)

	h := FromRGB(teal.R, teal.G, teal.B).H
	require.NotEqual(t, math.Round(h), h)

	est, err := Estimate(ctx, plate, EstimatorConfig{Percentile: 30})
	require.NoError(t, err)
	require.Equal(t, math.Round(h), est.Hue)
	require.Zero(t, est.Tolerance)

	bg := solid(3, 2, blue)
	out, counts, err := Composite(ctx, plate, bg, est.Dominant, 1)
	require.NoError(t, err)
	require.Equal(t, Counts{Keyed: 0, Kept: 6}, counts)
	require.Equal(t, teal, out.NRGBAAt(0, 0))

	_, counts, err = Composite(ctx, plate, bg, Dominant{Hue: est.Hue, Tolerance: 0.5}, 1)
	require.NoError(t, err)
	require.Equal(t, 6, counts.Keyed)
}

func TestComposite_KeepsBackgroundAlpha(t *testing.T) {
	src := solid(1, 1, green)
	half := color.NRGBA{10, 20, 30, 128}
	bg := solid(1, 1, half)

	out, _, err := Composite(context.Background(), src, bg, Dominant{Hue: 120, Tolerance: 1}, 1)
	require.NoError(t, err)
	require.Equal(t, half, out.NRGBAAt(0, 0))
}

func TestComposite_SourceAlphaPassesThrough(t *testing.T) {
	ghost := color.NRGBA{255, 0, 0, 17}
	src := solid(1, 1, ghost)
	out, _, err := Composite(context.Background(), src, solid(1, 1, blue), Dominant{Hue: 120, Tolerance: 20}, 1)
	require.NoError(t, err)
	require.Equal(t, ghost, out.NRGBAAt(0, 0))
}

func TestComposite_DimensionMismatch(t *testing.T) {
	src := newImage(2, 1, green, red)
	bg := newImage(1, 1, blue)
	_, _, err := Composite(context.Background(), src, bg, Dominant{Hue: 120, Tolerance: 20}, 1)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, _, err = Composite(context.Background(), src, solid(2, 2, blue), Dominant{}, 1)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestComposite_Deterministic(t *testing.T) {
	ctx := context.Background()
	src := noisyImage(53, 41, 3)
	bg := noisyImage(53, 41, 4)
	d := Dominant{Hue: 120, Tolerance: 60}

	first, c1, err := Composite(ctx, src, bg, d, 1)
	require.NoError(t, err)
	again, c2, err := Composite(ctx, src, bg, d, 1)
	require.NoError(t, err)
	parallel, c3, err := Composite(ctx, src, bg, d, 7)
	require.NoError(t, err)

	require.Equal(t, first.Pix, again.Pix)
	require.Equal(t, first.Pix, parallel.Pix)
	require.Equal(t, c1, c2)
	require.Equal(t, c1, c3)
	require.Equal(t, 53*41, c1.Keyed+c1.Kept)
	require.NotZero(t, c1.Keyed)
}

func TestComposite_OffsetBounds(t *testing.T) {
	big := newImage(3, 1, red, green, red)
	src := big.SubImage(image.Rect(1, 0, 3, 1)).(*image.NRGBA)
	bg := newImage(2, 1, blue, color.NRGBA{1, 2, 3, 255})

	out, _, err := Composite(context.Background(), src, bg, Dominant{Hue: 120, Tolerance: 20}, 2)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 2, 1), out.Bounds())
	require.Equal(t, blue, out.NRGBAAt(0, 0))
	require.Equal(t, red, out.NRGBAAt(1, 0))
}
