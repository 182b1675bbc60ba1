package chroma

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
)

// ErrEmptyImage is returned when there are no pixels to estimate from.
var ErrEmptyImage = errors.New("image has no pixels")

// Strategy selects how a hue histogram is reduced to a Dominant color.
type Strategy int

const (
	// StrategyPercentile takes a percentile of the hue distribution as the
	// hue and its population standard deviation as the tolerance.
	StrategyPercentile Strategy = iota
	// StrategyMode takes the most frequent hue and a fixed tolerance.
	StrategyMode
)

func (s Strategy) String() string {
	switch s {
	case StrategyPercentile:
		return "percentile"
	case StrategyMode:
		return "mode"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "percentile" or "mode".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentile", "":
		return StrategyPercentile, nil
	case "mode":
		return StrategyMode, nil
	}
	return 0, fmt.Errorf("unknown strategy %q (want percentile or mode)", s)
}

// Defaults for the command line and configuration file.
const (
	DefaultPercentile = 30
	DefaultTolerance  = 20
)

// EstimatorConfig configures Estimate.
type EstimatorConfig struct {
	Strategy Strategy
	// Percentile in [0, 100], used by StrategyPercentile.
	Percentile float64
	// Tolerance in degrees, used by StrategyMode.
	Tolerance float64
	// Workers bounds the number of row bands histogrammed concurrently.
	// Zero means runtime.NumCPU().
	Workers int
}

// Dominant is the estimated key hue and the accepted distance around it.
type Dominant struct {
	Hue       float64 `json:"hue" yaml:"hue"`
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
}

// Contains reports whether hue h lies within the tolerance band. The
// distance is linear: hues on either side of the 0/360 seam are not
// adjacent.
func (d Dominant) Contains(h float64) bool {
	return math.Abs(d.Hue-h) <= d.Tolerance
}

// Estimation is the result of Estimate.
type Estimation struct {
	Dominant
	Summary Summary
}

// HueHistogram builds the hue histogram of img. Every pixel is counted,
// transparent or not.
func HueHistogram(ctx context.Context, img *image.NRGBA, workers int) (*Histogram, error) {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	bands := splitRows(h, workers)
	partial := make([]Histogram, len(bands))
	err := forEachBand(ctx, h, len(bands), func(i int, b band) error {
		hg := &partial[i]
		for y := b.y0; y < b.y1; y++ {
			off := img.PixOffset(r.Min.X, r.Min.Y+y)
			row := img.Pix[off : off+w*4 : off+w*4]
			for x := 0; x < len(row); x += 4 {
				hg.Add(FromRGB(row[x], row[x+1], row[x+2]).H)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var total Histogram
	for i := range partial {
		total.Merge(&partial[i])
	}
	return &total, nil
}

// Estimate infers the dominant hue of img.
func Estimate(ctx context.Context, img *image.NRGBA, cfg EstimatorConfig) (Estimation, error) {
	hg, err := HueHistogram(ctx, img, cfg.Workers)
	if err != nil {
		return Estimation{}, fmt.Errorf("build histogram: %w", err)
	}
	return Reduce(hg, cfg)
}

// Reduce turns a histogram into an Estimation according to cfg.Strategy.
func Reduce(hg *Histogram, cfg EstimatorConfig) (Estimation, error) {
	summary, err := hg.Summarize()
	if err != nil {
		return Estimation{}, fmt.Errorf("%w: %v", ErrEmptyImage, err)
	}
	est := Estimation{Summary: summary}

	switch cfg.Strategy {
	case StrategyPercentile:
		hue, err := hg.Percentile(cfg.Percentile)
		if err != nil {
			return Estimation{}, err
		}
		est.Hue = float64(hue)
		est.Tolerance = summary.StdDev
	case StrategyMode:
		hue, _ := hg.Mode()
		if cfg.Tolerance < 0 {
			return Estimation{}, fmt.Errorf("negative tolerance %v", cfg.Tolerance)
		}
		est.Hue = float64(hue)
		est.Tolerance = cfg.Tolerance
	default:
		return Estimation{}, fmt.Errorf("unsupported strategy %v", cfg.Strategy)
	}
	return est, nil
}
