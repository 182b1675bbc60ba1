package encoder

import (
	"errors"
	"image"
	"io"
)

var (
	// ErrEncode marks a failure to encode or write an output image.
	ErrEncode = errors.New("encode failed")
	// ErrUnsupportedFormat is returned for extensions no available encoder handles.
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name (e.g. "png", "jpeg", "webp").
	Format() string

	// Extensions returns the file extensions handled, lowercase without dot.
	Extensions() []string

	// Encode writes img to w. Quality (1-100) is ignored by lossless formats.
	Encode(w io.Writer, img image.Image, quality int) error

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp, avifenc) may not be installed.
	Available() bool
}
