package encoder

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// PNGEncoder encodes lossless PNG, keeping the alpha channel.
type PNGEncoder struct{}

func (e *PNGEncoder) Format() string       { return "png" }
func (e *PNGEncoder) Extensions() []string { return []string{"png"} }
func (e *PNGEncoder) Available() bool      { return true }

func (e *PNGEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, img)
}

// JPEGEncoder encodes JPEG. Alpha is dropped.
type JPEGEncoder struct{}

func (e *JPEGEncoder) Format() string       { return "jpeg" }
func (e *JPEGEncoder) Extensions() []string { return []string{"jpg", "jpeg"} }
func (e *JPEGEncoder) Available() bool      { return true }

func (e *JPEGEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: clampQuality(quality)})
}

// GIFEncoder encodes a single-frame GIF with the default palette.
type GIFEncoder struct{}

func (e *GIFEncoder) Format() string       { return "gif" }
func (e *GIFEncoder) Extensions() []string { return []string{"gif"} }
func (e *GIFEncoder) Available() bool      { return true }

func (e *GIFEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	return gif.Encode(w, img, nil)
}

// BMPEncoder encodes uncompressed BMP.
type BMPEncoder struct{}

func (e *BMPEncoder) Format() string       { return "bmp" }
func (e *BMPEncoder) Extensions() []string { return []string{"bmp"} }
func (e *BMPEncoder) Available() bool      { return true }

func (e *BMPEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	return bmp.Encode(w, img)
}

// TIFFEncoder encodes deflate-compressed TIFF.
type TIFFEncoder struct{}

func (e *TIFFEncoder) Format() string       { return "tiff" }
func (e *TIFFEncoder) Extensions() []string { return []string{"tif", "tiff"} }
func (e *TIFFEncoder) Available() bool      { return true }

func (e *TIFFEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

func clampQuality(q int) int {
	if q <= 0 || q > 100 {
		return 90
	}
	return q
}
