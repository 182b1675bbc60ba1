package pipeline

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/AnyUserName/hueswap/internal/config"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode marks an input that could not be read or parsed as an image.
var ErrDecode = errors.New("decode failed")

// Decode reads the image at path and returns it as non-premultiplied RGBA
// with its origin at (0, 0), plus the detected format name.
func Decode(path string) (*image.NRGBA, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: open %s: %w", ErrDecode, path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return imaging.Clone(img), format, nil
}

// FitBackground returns bg at exactly width x height. A background that
// already matches is returned as is. Otherwise it is resampled with a
// Lanczos filter, either cropped to fill (config.FitFill) or stretched
// (config.FitStretch). The boolean reports whether resampling happened.
func FitBackground(bg *image.NRGBA, width, height int, fit string) (*image.NRGBA, bool) {
	b := bg.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return bg, false
	}
	if fit == config.FitStretch {
		return imaging.Resize(bg, width, height, imaging.Lanczos), true
	}
	return imaging.Fill(bg, width, height, imaging.Center, imaging.Lanczos), true
}
