//go:build ignore

// gen_fixtures creates small test images for the E2E smoke test.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	os.MkdirAll(filepath.Join(dir, "shots"), 0o755)

	// Subjects on a noisy green screen (PNG, 320x240 each).
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("shot-%d.png", i)
		writePNG(filepath.Join(dir, "shots", name), greenScreen(320, 240, int64(i)))
	}

	// Backgrounds: one matching size, one that needs resizing.
	writeJPEG(filepath.Join(dir, "beach.jpg"), gradient(320, 240))
	writePNG(filepath.Join(dir, "sky.png"), gradient(500, 180))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 5 fixtures in %s\n", dir)
}

// greenScreen draws a warm-colored disc over a green plate with a little
// per-pixel noise, plus a gray bar that must never be keyed.
func greenScreen(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx, cy, r := w/2, h/2, h/3
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x-cx, y-cy
			var c color.NRGBA
			switch {
			case dx*dx+dy*dy < r*r:
				c = color.NRGBA{R: 210, G: 140, B: 100, A: 255}
			case y > h-20:
				c = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
			default:
				n := uint8(rng.Intn(24))
				c = color.NRGBA{R: 20 + n/2, G: 200 + n, B: 30 + n/2, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 200,
				A: 255,
			})
		}
	}
	return img
}

func writePNG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		panic(err)
	}
}
