// Package report describes the outcome of a run: one Result per composited
// image plus aggregate statistics. It is written as JSON or YAML and read
// back by the validate command.
package report

import "github.com/AnyUserName/hueswap/internal/chroma"

// SupportedVersion is the current schema version.
const SupportedVersion = 1

// Report is the top-level output of a run.
type Report struct {
	Version     int      `json:"version" yaml:"version"`
	GeneratedAt string   `json:"generated_at" yaml:"generated_at"`
	Strategy    string   `json:"strategy" yaml:"strategy"`
	Percentile  float64  `json:"percentile,omitempty" yaml:"percentile,omitempty"`
	Workers     int      `json:"workers" yaml:"workers"`
	Results     []Result `json:"results" yaml:"results"`
	Stats       Stats    `json:"stats" yaml:"stats"`
}

// Result describes one source image composited over a background.
type Result struct {
	Input      string `json:"input" yaml:"input"`
	Background string `json:"background" yaml:"background"`
	Output     string `json:"output" yaml:"output"`
	Width      int    `json:"width" yaml:"width"`
	Height     int    `json:"height" yaml:"height"`
	Resized    bool   `json:"resized" yaml:"resized"` // background was resampled to fit

	Dominant chroma.Dominant `json:"dominant" yaml:"dominant"`
	Summary  chroma.Summary  `json:"summary" yaml:"summary"`
	Counts   chroma.Counts   `json:"counts" yaml:"counts"`

	Size int64  `json:"size" yaml:"size"` // encoded bytes
	Hash string `json:"hash" yaml:"hash"` // hex xxhash64 of the encoded output

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the job errored.
func (r Result) Failed() bool { return r.Error != "" }

// Stats aggregates run metrics.
type Stats struct {
	TotalJobs        int   `json:"total_jobs" yaml:"total_jobs"`
	FailedJobs       int   `json:"failed_jobs" yaml:"failed_jobs"`
	TotalPixels      int64 `json:"total_pixels" yaml:"total_pixels"`
	KeyedPixels      int64 `json:"keyed_pixels" yaml:"keyed_pixels"`
	TotalOutputBytes int64 `json:"total_output_bytes" yaml:"total_output_bytes"`
}
