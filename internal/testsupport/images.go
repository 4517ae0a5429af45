package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// GradientImage returns an n x n diagonal gradient, dark at the top-left.
func GradientImage(n int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v := uint8((x + y) * 255 / (2 * (n - 1)))
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// SplitImage returns a 64x64 image with a dark and a light half. Vertical
// splits run down the middle; horizontal splits run across it.
func SplitImage(vertical, darkFirst bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			first := x < 32
			if !vertical {
				first = y < 32
			}
			v := uint8(255)
			if first == darkFirst {
				v = 0
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// PNGBytes encodes the image as PNG.
func PNGBytes(t testing.TB, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// JPEGBytes encodes the image as JPEG at the given quality.
func JPEGBytes(t testing.TB, img image.Image, quality int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}

// WriteImage stores the image as a PNG file at the given path.
func WriteImage(t testing.TB, path string, img image.Image) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, PNGBytes(t, img), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
