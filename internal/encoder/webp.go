package encoder

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// tool is an external command-line encoder that reads a PNG file and
// writes its output to another file.
type tool struct {
	name string
	hint string

	once sync.Once
	path string
}

func (t *tool) available() bool {
	t.once.Do(func() {
		if path, err := exec.LookPath(t.name); err == nil {
			t.path = path
		}
	})
	return t.path != ""
}

// run writes img as a temporary PNG, invokes the tool with args built
// from the source and destination paths, and copies the result to w.
func (t *tool) run(w io.Writer, img image.Image, ext string, args func(src, dst string) []string) error {
	if !t.available() {
		return fmt.Errorf("%s not found in PATH; %s", t.name, t.hint)
	}

	id := tempCounter.Add(1)
	srcFile, err := os.CreateTemp("", fmt.Sprintf("hueswap_src_%d_*.png", id))
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	srcPath := srcFile.Name()
	defer os.Remove(srcPath)

	if err := png.Encode(srcFile, img); err != nil {
		srcFile.Close()
		return fmt.Errorf("encode temp png: %w", err)
	}
	if err := srcFile.Close(); err != nil {
		return fmt.Errorf("close temp png: %w", err)
	}

	dstFile, err := os.CreateTemp("", fmt.Sprintf("hueswap_dst_%d_*.%s", id, ext))
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	dstPath := dstFile.Name()
	dstFile.Close()
	defer os.Remove(dstPath)

	cmd := exec.Command(t.path, args(srcPath, dstPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", t.name, err, string(out))
	}

	f, err := os.Open(dstPath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// WebPEncoder encodes images to WebP by shelling out to cwebp.
// This approach avoids CGO while still producing optimized WebP.
// Install: brew install webp / apt install webp
type WebPEncoder struct {
	tool tool
}

func NewWebPEncoder() *WebPEncoder {
	return &WebPEncoder{tool: tool{name: "cwebp", hint: "install with: brew install webp"}}
}

func (e *WebPEncoder) Format() string       { return "webp" }
func (e *WebPEncoder) Extensions() []string { return []string{"webp"} }
func (e *WebPEncoder) Available() bool      { return e.tool.available() }

func (e *WebPEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	q := clampQuality(quality)
	return e.tool.run(w, img, "webp", func(src, dst string) []string {
		return []string{
			"-q", fmt.Sprintf("%d", q),
			"-m", "6", // compression method (0=fast, 6=best)
			"-exact", // keep RGB under transparent pixels
			"-quiet",
			src,
			"-o", dst,
		}
	})
}

// AVIFEncoder encodes images to AVIF by shelling out to avifenc.
// Install: brew install libavif / apt install libavif-bin
type AVIFEncoder struct {
	tool tool
}

func NewAVIFEncoder() *AVIFEncoder {
	return &AVIFEncoder{tool: tool{name: "avifenc", hint: "install with: brew install libavif"}}
}

func (e *AVIFEncoder) Format() string       { return "avif" }
func (e *AVIFEncoder) Extensions() []string { return []string{"avif"} }
func (e *AVIFEncoder) Available() bool      { return e.tool.available() }

func (e *AVIFEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	// avifenc uses a different quality scale: lower = better, 0-63.
	avifQ := 63 - (clampQuality(quality) * 63 / 100)
	return e.tool.run(w, img, "avif", func(src, dst string) []string {
		return []string{
			"--min", fmt.Sprintf("%d", avifQ),
			"--max", fmt.Sprintf("%d", avifQ),
			"--speed", "6",
			src,
			dst,
		}
	})
}
