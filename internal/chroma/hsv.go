// Package chroma implements hue-keyed background replacement: a hue
// histogram estimator that infers the dominant background hue of an image,
// and a compositor that swaps matching pixels for a background image.
package chroma

import "math"

// Key policy. Hue is noisy at low saturation or low value, so pixels below
// either floor are never keyed regardless of their hue.
const (
	MinSaturation = 0.4
	MinValue      = 0.1
)

// HSV is a color in hue-saturation-value space.
// H is in degrees [0, 360), S and V are in [0, 1].
type HSV struct {
	H, S, V float64
}

// linear maps an 8-bit gamma-encoded sRGB channel to linear light.
var linear [256]float64

func init() {
	for i := range linear {
		c := float64(i) / 255
		if c <= 0.04045 {
			linear[i] = c / 12.92
		} else {
			linear[i] = math.Pow((c+0.055)/1.055, 2.4)
		}
	}
}

// Linearize returns the linear-light value of an 8-bit sRGB channel.
func Linearize(c uint8) float64 { return linear[c] }

// FromRGB converts a gamma-encoded 8-bit sRGB triple to HSV. The channels
// are linearized first, then the hexcone model is applied.
// Achromatic colors get H = 0.
func FromRGB(r, g, b uint8) HSV {
	fr, fg, fb := linear[r], linear[g], linear[b]
	max := math.Max(fr, math.Max(fg, fb))
	min := math.Min(fr, math.Min(fg, fb))
	d := max - min

	var h, s float64
	if max > 0 {
		s = d / max
	}
	if d > 0 {
		switch max {
		case fr:
			h = (fg - fb) / d
		case fg:
			h = (fb-fr)/d + 2
		default:
			h = (fr-fg)/d + 4
		}
		h *= 60
		if h < 0 {
			h += 360
		}
		if h >= 360 {
			h -= 360
		}
	}
	return HSV{H: h, S: s, V: max}
}

// Keyable reports whether the color is saturated and bright enough to be
// considered for keying at all.
func (c HSV) Keyable() bool {
	return c.S >= MinSaturation && c.V >= MinValue
}

// Bucket returns the histogram bucket for hue h, rounding half away from
// zero. Hues that round up to 360 land in the terminal bucket 360; they are
// not folded into bucket 0.
func Bucket(h float64) int {
	b := int(math.Round(h))
	if b < 0 {
		return 0
	}
	if b > MaxHue {
		return MaxHue
	}
	return b
}
