package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"

	"github.com/AnyUserName/hueswap/internal/chroma"
	"github.com/AnyUserName/hueswap/internal/encoder"
	"github.com/AnyUserName/hueswap/internal/hasher"
	"github.com/AnyUserName/hueswap/internal/profile"
	"github.com/AnyUserName/hueswap/internal/report"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrOutputCollision marks a batch input whose output path would overwrite
// the output of another input.
var ErrOutputCollision = errors.New("output path collides with another input")

// Config holds all parameters for a pipeline run.
type Config struct {
	Estimator chroma.EstimatorConfig
	Fit       string
	Quality   int
	// Workers is the number of pixel bands for a single job, or the number
	// of concurrent jobs in RunDir. Zero means runtime.NumCPU().
	Workers int

	Logger   *zap.Logger
	Profiler *profile.Profiler // nil disables profiling

	// OnEstimate, if set, is called as soon as a job's key hue is known,
	// before compositing. It may be called concurrently by RunDir.
	OnEstimate func(job Job, est chroma.Estimation)
}

// Job is one source image to composite over one background.
type Job struct {
	Input      string
	Background string
	Output     string
}

// Pipeline orchestrates decode, estimate, composite and encode.
type Pipeline struct {
	cfg      Config
	registry *encoder.Registry
	log      *zap.Logger
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		registry: encoder.NewRegistry(),
		log:      log,
	}
}

// Registry exposes the encoder registry, mainly for diagnostics.
func (p *Pipeline) Registry() *encoder.Registry { return p.registry }

// Run processes a single job using Workers pixel bands.
func (p *Pipeline) Run(ctx context.Context, job Job) (report.Result, error) {
	result := report.Result{Input: job.Input, Background: job.Background, Output: job.Output}
	if _, err := p.registry.ForPath(job.Output); err != nil {
		return result, fmt.Errorf("%w: %w", encoder.ErrEncode, err)
	}

	var bg *image.NRGBA
	err := p.cfg.Profiler.Span(ctx, "load_bg", func(context.Context) error {
		var err error
		bg, _, err = Decode(job.Background)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("background: %w", err)
	}

	return p.process(ctx, job, bg, p.cfg.Workers)
}

// process runs one job against an already decoded background.
func (p *Pipeline) process(ctx context.Context, job Job, bg *image.NRGBA, workers int) (report.Result, error) {
	prof := p.cfg.Profiler
	log := p.log.With(zap.String("input", job.Input))
	result := report.Result{Input: job.Input, Background: job.Background, Output: job.Output}

	var src *image.NRGBA
	err := prof.Span(ctx, "load_input", func(context.Context) error {
		var (
			err    error
			format string
		)
		src, format, err = Decode(job.Input)
		if err == nil {
			log.Debug("decoded input", zap.String("format", format),
				zap.Int("width", src.Bounds().Dx()), zap.Int("height", src.Bounds().Dy()))
		}
		return err
	})
	if err != nil {
		return result, fmt.Errorf("input: %w", err)
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	result.Width, result.Height = w, h

	_, end := prof.Start(ctx, "resize_bg")
	bg, result.Resized = FitBackground(bg, w, h, p.cfg.Fit)
	end()
	if result.Resized {
		log.Debug("resized background", zap.String("fit", p.cfg.Fit))
	}

	estCfg := p.cfg.Estimator
	estCfg.Workers = workers
	var est chroma.Estimation
	err = prof.Span(ctx, "dominant_color", func(ctx context.Context) error {
		hctx, end := prof.Start(ctx, "histogram")
		hg, err := chroma.HueHistogram(hctx, src, estCfg.Workers)
		end()
		if err != nil {
			return err
		}
		_, end = prof.Start(ctx, "reduce")
		defer end()
		est, err = chroma.Reduce(hg, estCfg)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("estimate %s: %w", job.Input, err)
	}
	result.Dominant, result.Summary = est.Dominant, est.Summary
	s := est.Summary
	log.Info("hue statistics",
		zap.Int("min", s.Min), zap.Float64("mean", s.Mean), zap.Int("max", s.Max),
		zap.Float64("stddev", s.StdDev),
		zap.Int("p50", s.P50), zap.Int("p90", s.P90), zap.Int("p99", s.P99), zap.Int("p999", s.P999))
	log.Info("using hue", zap.Float64("hue", est.Hue), zap.Float64("tolerance", est.Tolerance),
		zap.Stringer("strategy", estCfg.Strategy))
	if p.cfg.OnEstimate != nil {
		p.cfg.OnEstimate(job, est)
	}

	var out *image.NRGBA
	err = prof.Span(ctx, "merge", func(ctx context.Context) error {
		var err error
		out, result.Counts, err = chroma.Composite(ctx, src, bg, est.Dominant, workers)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("composite %s: %w", job.Input, err)
	}

	var data []byte
	err = prof.Span(ctx, "save", func(context.Context) error {
		var err error
		data, err = p.registry.WriteFile(job.Output, out, p.cfg.Quality)
		return err
	})
	if err != nil {
		return result, err
	}
	result.Size = int64(len(data))
	result.Hash = hasher.ContentHash(data, hasher.HexLen)
	log.Debug("wrote output", zap.String("output", job.Output),
		zap.Int("keyed", result.Counts.Keyed), zap.Int64("bytes", result.Size))
	return result, nil
}

// RunDir composites every image under inputDir over the same background,
// writing <outputDir>/<key>.<ext> (see OutputStems for inputs that share a
// key). Up to Workers jobs run concurrently,
// each on a single pixel band. Failed jobs are reported in their Result;
// an error is returned only if nothing could be processed.
func (p *Pipeline) RunDir(ctx context.Context, inputDir, outputDir, background, ext string) ([]report.Result, error) {
	log := p.log
	log.Debug(p.registry.String())

	sample := filepath.Join(outputDir, "out."+ext)
	if _, err := p.registry.ForPath(sample); err != nil {
		return nil, fmt.Errorf("%w: %w", encoder.ErrEncode, err)
	}

	sources, err := ScanImages(inputDir, background)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", inputDir)
	}
	log.Info("found images", zap.Int("count", len(sources)))

	var bg *image.NRGBA
	err = p.cfg.Profiler.Span(ctx, "load_bg", func(context.Context) error {
		var err error
		bg, _, err = Decode(background)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	stems := OutputStems(sources)
	results := make([]report.Result, len(sources))
	errs := make([]error, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, src := range sources {
		if stems[i] == "" {
			errs[i] = fmt.Errorf("%w: %s", ErrOutputCollision, src.RelPath)
			results[i] = report.Result{Input: src.AbsPath, Background: background, Error: errs[i].Error()}
			log.Error("job failed", zap.String("input", src.RelPath), zap.Error(errs[i]))
			continue
		}
		if stems[i] != src.Key {
			log.Warn("output name shared with another input, keeping source extension",
				zap.String("input", src.RelPath), zap.String("stem", stems[i]))
		}
		g.Go(func() error {
			job := Job{
				Input:      src.AbsPath,
				Background: background,
				Output:     filepath.Join(outputDir, filepath.FromSlash(stems[i])+"."+ext),
			}
			if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
				errs[i] = fmt.Errorf("%w: %w", encoder.ErrEncode, err)
				results[i] = report.Result{Input: job.Input, Output: job.Output, Error: errs[i].Error()}
				return nil
			}

			jctx, end := p.cfg.Profiler.Start(gctx, src.RelPath)
			res, err := p.process(jctx, job, bg, 1)
			end()
			if err != nil {
				log.Error("job failed", zap.String("input", src.RelPath), zap.Error(err))
				res.Error = err.Error()
				errs[i] = err
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	if failed == len(sources) {
		return results, fmt.Errorf("all %d images failed to process: %w", failed, errors.Join(errs...))
	}
	if failed > 0 {
		log.Warn("some images had errors", zap.Int("failed", failed), zap.Int("total", len(sources)))
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
