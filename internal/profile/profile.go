// Package profile records nested timing spans for a run and dumps them as
// an indented text tree or a flamegraph-style HTML page.
package profile

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Span is one timed section. Children are ordered by start time.
type Span struct {
	Name     string
	Start    time.Time
	Duration time.Duration
	Children []*Span
}

// Profiler collects spans. A nil *Profiler records nothing, so callers
// never need to check whether profiling is enabled.
type Profiler struct {
	mu    sync.Mutex
	now   func() time.Time
	roots []*Span
}

// New returns an empty profiler.
func New() *Profiler {
	return &Profiler{now: time.Now}
}

type spanKey struct{}

// Start opens a span named name under the span carried by ctx, if any.
// The returned context carries the new span; call end to close it.
func (p *Profiler) Start(ctx context.Context, name string) (_ context.Context, end func()) {
	if p == nil {
		return ctx, func() {}
	}
	s := &Span{Name: name, Start: p.now()}

	p.mu.Lock()
	if parent, ok := ctx.Value(spanKey{}).(*Span); ok {
		parent.Children = append(parent.Children, s)
	} else {
		p.roots = append(p.roots, s)
	}
	p.mu.Unlock()

	var once sync.Once
	return context.WithValue(ctx, spanKey{}, s), func() {
		once.Do(func() {
			d := p.now().Sub(s.Start)
			p.mu.Lock()
			s.Duration = d
			p.mu.Unlock()
		})
	}
}

// Span runs fn inside a span named name.
func (p *Profiler) Span(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, end := p.Start(ctx, name)
	defer end()
	return fn(ctx)
}

// Roots returns a snapshot of the top-level spans.
func (p *Profiler) Roots() []*Span {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return copySpans(p.roots)
}

func copySpans(in []*Span) []*Span {
	out := make([]*Span, len(in))
	for i, s := range in {
		c := *s
		c.Children = copySpans(s.Children)
		out[i] = &c
	}
	return out
}

// WriteText writes the span tree, one span per line, children indented
// under their parent with their share of the parent's time.
func (p *Profiler) WriteText(w io.Writer) error {
	for _, s := range p.Roots() {
		if err := writeSpan(w, s, 0, s.Duration); err != nil {
			return err
		}
	}
	return nil
}

func writeSpan(w io.Writer, s *Span, depth int, parent time.Duration) error {
	share := 100.0
	if parent > 0 {
		share = float64(s.Duration) / float64(parent) * 100
	}
	_, err := fmt.Fprintf(w, "%s%s: %s (%.1f%%)\n",
		strings.Repeat("  ", depth), s.Name, s.Duration.Round(time.Microsecond), share)
	if err != nil {
		return err
	}
	for _, c := range s.Children {
		if err := writeSpan(w, c, depth+1, s.Duration); err != nil {
			return err
		}
	}
	return nil
}
