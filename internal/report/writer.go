package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// New creates an empty report with defaults.
func New(strategy string, percentile float64, workers int) *Report {
	return &Report{
		Version:     SupportedVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Strategy:    strategy,
		Percentile:  percentile,
		Workers:     workers,
		Results:     []Result{},
	}
}

// ComputeStats recalculates aggregate statistics from results.
func (r *Report) ComputeStats() {
	var s Stats
	s.TotalJobs = len(r.Results)
	for _, res := range r.Results {
		if res.Failed() {
			s.FailedJobs++
			continue
		}
		s.TotalPixels += int64(res.Width) * int64(res.Height)
		s.KeyedPixels += int64(res.Counts.Keyed)
		s.TotalOutputBytes += res.Size
	}
	r.Stats = s
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Write serializes the report to path, as YAML for .yaml/.yml and as
// indented JSON otherwise. The file is replaced atomically.
func Write(r *Report, path string) error {
	r.ComputeStats()

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return renameio.WriteFile(path, data, 0o644)
}

// Read parses a report written by Write.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if isYAML(path) {
		err = yaml.Unmarshal(data, &r)
	} else {
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &r, nil
}
