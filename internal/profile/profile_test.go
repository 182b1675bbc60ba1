package profile

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestProfiler_Nesting(t *testing.T) {
	p := New()
	p.now = fakeClock(time.Millisecond)

	ctx, end := p.Start(context.Background(), "run")
	require.NoError(t, p.Span(ctx, "dominant_color", func(ctx context.Context) error {
		_, endHist := p.Start(ctx, "histogram")
		endHist()
		return nil
	}))
	end()
	end() // closing twice is harmless

	roots := p.Roots()
	require.Len(t, roots, 1)
	require.Equal(t, "run", roots[0].Name)
	require.Len(t, roots[0].Children, 1)
	dc := roots[0].Children[0]
	require.Equal(t, "dominant_color", dc.Name)
	require.Equal(t, 3*time.Millisecond, dc.Duration)
	require.Equal(t, "histogram", dc.Children[0].Name)
	require.Equal(t, time.Millisecond, dc.Children[0].Duration)
	require.Equal(t, 5*time.Millisecond, roots[0].Duration)
}

func TestProfiler_SpanReturnsError(t *testing.T) {
	p := New()
	boom := errors.New("boom")
	err := p.Span(context.Background(), "save", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Len(t, p.Roots(), 1)
}

func TestProfiler_NilIsNoop(t *testing.T) {
	var p *Profiler
	ctx, end := p.Start(context.Background(), "x")
	end()
	require.NotNil(t, ctx)
	require.Nil(t, p.Roots())

	var buf bytes.Buffer
	require.NoError(t, p.WriteText(&buf))
	require.Empty(t, buf.String())
}

func TestProfiler_WriteText(t *testing.T) {
	p := New()
	p.now = fakeClock(time.Millisecond)
	ctx, end := p.Start(context.Background(), "run")
	_, endMerge := p.Start(ctx, "merge")
	endMerge()
	end()

	var buf bytes.Buffer
	require.NoError(t, p.WriteText(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, []string{
		"run: 3ms (100.0%)",
		"  merge: 1ms (33.3%)",
	}, lines)
}

func TestProfiler_WriteHTML(t *testing.T) {
	p := New()
	p.now = fakeClock(time.Millisecond)
	ctx, end := p.Start(context.Background(), "run")
	_, endSave := p.Start(ctx, "save<&>")
	endSave()
	end()

	var buf bytes.Buffer
	require.NoError(t, p.WriteHTML(&buf))
	out := buf.String()
	require.Contains(t, out, "<!DOCTYPE html>")
	require.Contains(t, out, "run 3ms")
	require.Contains(t, out, "save&lt;&amp;&gt; 1ms")
	require.Contains(t, out, "width: 33.333%")
}
