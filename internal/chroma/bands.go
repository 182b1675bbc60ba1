package chroma

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// band is a half-open range of rows [y0, y1) relative to the image origin.
type band struct {
	y0, y1 int
}

// splitRows partitions height rows into at most workers contiguous bands.
func splitRows(height, workers int) []band {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > height {
		workers = height
	}
	if workers < 1 {
		return nil
	}
	bands := make([]band, 0, workers)
	per, rem := height/workers, height%workers
	y := 0
	for i := 0; i < workers; i++ {
		n := per
		if i < rem {
			n++
		}
		bands = append(bands, band{y, y + n})
		y += n
	}
	return bands
}

// forEachBand runs fn once per band, concurrently when there is more than one.
func forEachBand(ctx context.Context, height, workers int, fn func(i int, b band) error) error {
	bands := splitRows(height, workers)
	if len(bands) == 1 {
		return fn(0, bands[0])
	}
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range bands {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i, b)
		})
	}
	return g.Wait()
}
