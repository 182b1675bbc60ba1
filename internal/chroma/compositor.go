package chroma

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
)

// ErrDimensionMismatch is returned when the source and background differ in size.
var ErrDimensionMismatch = errors.New("source and background dimensions differ")

// Counts tallies the outcome of a composite.
type Counts struct {
	Keyed int `json:"keyed" yaml:"keyed"`
	Kept  int `json:"kept" yaml:"kept"`
}

// Keyed reports whether an 8-bit sRGB color falls inside the key: its hue
// is within d and it is saturated and bright enough.
func Keyed(d Dominant, r, g, b uint8) bool {
	c := FromRGB(r, g, b)
	return c.Keyable() && d.Contains(c.H)
}

// Composite returns a copy of src in which every keyed pixel is replaced by
// the background pixel at the same coordinate, alpha included. Other pixels
// pass through unchanged. src and bg must have the same width and height;
// resizing is the caller's job.
func Composite(ctx context.Context, src, bg *image.NRGBA, d Dominant, workers int) (*image.NRGBA, Counts, error) {
	sr, br := src.Bounds(), bg.Bounds()
	if sr.Dx() != br.Dx() || sr.Dy() != br.Dy() {
		return nil, Counts{}, fmt.Errorf("%w: source %dx%d, background %dx%d",
			ErrDimensionMismatch, sr.Dx(), sr.Dy(), br.Dx(), br.Dy())
	}

	w, h := sr.Dx(), sr.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out, Counts{}, nil
	}

	var keyed atomic.Int64
	err := forEachBand(ctx, h, workers, func(_ int, b band) error {
		var n int64
		for y := b.y0; y < b.y1; y++ {
			so := src.PixOffset(sr.Min.X, sr.Min.Y+y)
			bo := bg.PixOffset(br.Min.X, br.Min.Y+y)
			oo := out.PixOffset(0, y)
			srow := src.Pix[so : so+w*4 : so+w*4]
			brow := bg.Pix[bo : bo+w*4 : bo+w*4]
			orow := out.Pix[oo : oo+w*4 : oo+w*4]
			for x := 0; x < len(srow); x += 4 {
				if Keyed(d, srow[x], srow[x+1], srow[x+2]) {
					copy(orow[x:x+4], brow[x:x+4])
					n++
				} else {
					copy(orow[x:x+4], srow[x:x+4])
				}
			}
		}
		keyed.Add(n)
		return nil
	})
	if err != nil {
		return nil, Counts{}, err
	}

	k := int(keyed.Load())
	return out, Counts{Keyed: k, Kept: w*h - k}, nil
}
