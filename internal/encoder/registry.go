package encoder

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// Registry maps file extensions to available encoders.
type Registry struct {
	encoders map[string]Encoder // by extension
	order    []string           // format names in registration order
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	return NewRegistryWith(
		&PNGEncoder{},
		&JPEGEncoder{},
		NewWebPEncoder(),
		NewAVIFEncoder(),
		&GIFEncoder{},
		&BMPEncoder{},
		&TIFFEncoder{},
	)
}

// NewRegistryWith registers the given encoders. Unavailable ones are skipped;
// on an extension clash the first encoder wins.
func NewRegistryWith(all ...Encoder) *Registry {
	r := &Registry{encoders: make(map[string]Encoder)}
	for _, enc := range all {
		if !enc.Available() {
			continue
		}
		r.order = append(r.order, enc.Format())
		for _, ext := range enc.Extensions() {
			if _, ok := r.encoders[ext]; !ok {
				r.encoders[ext] = enc
			}
		}
	}
	return r
}

// ForPath returns the encoder for path's extension.
func (r *Registry) ForPath(path string) (Encoder, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return nil, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, path)
	}
	enc, ok := r.encoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	return enc, nil
}

// Available returns all available format names.
func (r *Registry) Available() []string {
	return append([]string(nil), r.order...)
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	if len(r.order) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(r.order, ", "))
}

// WriteFile encodes img in the format implied by path and writes it
// atomically: on failure no partial file is left at path. It returns the
// encoded bytes.
func (r *Registry) WriteFile(path string, img image.Image, quality int) ([]byte, error) {
	enc, err := r.ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	var buf bytes.Buffer
	buf.Grow(512 * 1024)
	if err := enc.Encode(&buf, img, quality); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncode, enc.Format(), err)
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrEncode, path, err)
	}
	return buf.Bytes(), nil
}
