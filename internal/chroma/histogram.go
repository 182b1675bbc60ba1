package chroma

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxHue is the largest bucket index. Bucket 360 only receives hues
	// that round up from just below 360.
	MaxHue = 360
	// HistogramSize is the number of buckets, one per integer degree in [0, 360].
	HistogramSize = MaxHue + 1
)

// ErrEmptyHistogram is returned by statistics over a histogram with no samples.
var ErrEmptyHistogram = errors.New("histogram is empty")

// Histogram counts hues per integer degree.
type Histogram [HistogramSize]uint64

// Add records hue h in its rounded bucket.
func (hg *Histogram) Add(h float64) {
	hg[Bucket(h)]++
}

// Merge adds every bucket of other into hg.
func (hg *Histogram) Merge(other *Histogram) {
	for i, n := range other {
		hg[i] += n
	}
}

// Total returns the number of samples recorded.
func (hg *Histogram) Total() uint64 {
	var n uint64
	for _, c := range hg {
		n += c
	}
	return n
}

// Min returns the lowest non-empty bucket.
func (hg *Histogram) Min() (int, error) {
	for i, c := range hg {
		if c > 0 {
			return i, nil
		}
	}
	return 0, ErrEmptyHistogram
}

// Max returns the highest non-empty bucket.
func (hg *Histogram) Max() (int, error) {
	for i := MaxHue; i >= 0; i-- {
		if hg[i] > 0 {
			return i, nil
		}
	}
	return 0, ErrEmptyHistogram
}

// Mean returns the count-weighted mean bucket.
func (hg *Histogram) Mean() (float64, error) {
	total := hg.Total()
	if total == 0 {
		return 0, ErrEmptyHistogram
	}
	var sum float64
	for i, c := range hg {
		sum += float64(i) * float64(c)
	}
	return sum / float64(total), nil
}

// StdDev returns the population standard deviation of the bucket values.
func (hg *Histogram) StdDev() (float64, error) {
	mean, err := hg.Mean()
	if err != nil {
		return 0, err
	}
	var sum float64
	for i, c := range hg {
		if c == 0 {
			continue
		}
		d := float64(i) - mean
		sum += d * d * float64(c)
	}
	return math.Sqrt(sum / float64(hg.Total())), nil
}

// Percentile returns the nearest-rank p-th percentile: the smallest bucket
// whose cumulative count reaches ceil(p/100 * N), with the rank clamped to
// [1, N]. p must lie in [0, 100].
func (hg *Histogram) Percentile(p float64) (int, error) {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, fmt.Errorf("percentile %v out of range [0, 100]", p)
	}
	total := hg.Total()
	if total == 0 {
		return 0, ErrEmptyHistogram
	}
	rank := uint64(math.Ceil(p / 100 * float64(total)))
	if rank < 1 {
		rank = 1
	}
	if rank > total {
		rank = total
	}
	var seen uint64
	for i, c := range hg {
		seen += c
		if seen >= rank {
			return i, nil
		}
	}
	return MaxHue, nil
}

// Mode returns the bucket with the largest count. Ties go to the lowest bucket.
func (hg *Histogram) Mode() (int, error) {
	best := -1
	var bestCount uint64
	for i, c := range hg {
		if c > bestCount {
			best, bestCount = i, c
		}
	}
	if best < 0 {
		return 0, ErrEmptyHistogram
	}
	return best, nil
}

// Summary holds diagnostic statistics of a histogram. It never feeds back
// into estimation.
type Summary struct {
	Min    int     `json:"min" yaml:"min"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Max    int     `json:"max" yaml:"max"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	P50    int     `json:"p50" yaml:"p50"`
	P90    int     `json:"p90" yaml:"p90"`
	P99    int     `json:"p99" yaml:"p99"`
	P999   int     `json:"p999" yaml:"p999"`
	Count  uint64  `json:"count" yaml:"count"`
}

// Summarize computes a Summary of hg.
func (hg *Histogram) Summarize() (Summary, error) {
	s := Summary{Count: hg.Total()}
	if s.Count == 0 {
		return s, ErrEmptyHistogram
	}
	// The histogram is non-empty, so none of these can fail.
	s.Min, _ = hg.Min()
	s.Max, _ = hg.Max()
	s.Mean, _ = hg.Mean()
	s.StdDev, _ = hg.StdDev()
	s.P50, _ = hg.Percentile(50)
	s.P90, _ = hg.Percentile(90)
	s.P99, _ = hg.Percentile(99)
	s.P999, _ = hg.Percentile(99.9)
	return s, nil
}
