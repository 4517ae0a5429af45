package imagehash

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode parses raw image bytes in any registered format and normalizes the
// result for hashing. PNG, JPEG, GIF, WebP, BMP, and TIFF are supported.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return Normalize(img), nil
}

// Normalize prepares an image for hashing: transparent margins are cropped
// away and the remaining pixels are composited onto a white background.
// Sprite sheets ship tight artwork inside large transparent canvases, so
// hashing the raw frame would mostly fingerprint empty space.
func Normalize(img image.Image) image.Image {
	bounds := opaqueBounds(img)
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Over)
	return out
}

// opaqueBounds returns the tightest rectangle containing every pixel with
// nonzero alpha, or the full bounds when the image is fully transparent or
// fully opaque.
func opaqueBounds(img image.Image) image.Rectangle {
	b := img.Bounds()
	if op, ok := img.(interface{ Opaque() bool }); ok && op.Opaque() {
		return b
	}

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < minX || maxY < minY {
		return b
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// CenterCrop keeps the central ratio of the image in both dimensions.
// Ratios outside (0, 1) return the image unchanged.
func CenterCrop(img image.Image, ratio float64) image.Image {
	if ratio <= 0 || ratio >= 1 {
		return img
	}
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * ratio))
	h := int(math.Round(float64(b.Dy()) * ratio))
	if w < 1 || h < 1 {
		return img
	}
	x0 := b.Min.X + (b.Dx()-w)/2
	y0 := b.Min.Y + (b.Dy()-h)/2
	crop := image.Rect(x0, y0, x0+w, y0+h)

	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(crop)
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), img, crop.Min, draw.Src)
	return out
}
