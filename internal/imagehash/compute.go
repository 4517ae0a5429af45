package imagehash

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/rivo/duplo/haar"
	xdraw "golang.org/x/image/draw"
)

// phashScale is the oversampling factor for the DCT input grid. Hashing at
// 4x the final size keeps enough detail for the low-frequency block to be
// meaningful.
const phashScale = 4

// whashMinScale is the smallest square the wavelet transform runs on. The
// input is always resized to a power of two so the Haar decomposition nests
// cleanly.
const whashMinScale = 64

// Compute derives a perceptual hash from an already decoded image. Size is
// the grid dimension: the resulting hash carries size*size bits. The wavelet
// method additionally requires size to be a power of two.
func Compute(img image.Image, method Method, size int) (Hash, error) {
	if size < 2 {
		return Hash{}, fmt.Errorf("hash size must be at least 2, got %d", size)
	}
	switch method {
	case MethodAHash:
		return averageHash(img, size), nil
	case MethodPHash:
		return perceptualHash(img, size), nil
	case MethodDHash:
		return differenceHash(img, size), nil
	case MethodWHash:
		if size&(size-1) != 0 {
			return Hash{}, fmt.Errorf("wavelet hash size must be a power of two, got %d", size)
		}
		return waveletHash(img, size), nil
	default:
		return Hash{}, fmt.Errorf("unknown hash method %q", method)
	}
}

// averageHash thresholds each cell of the downscaled grayscale grid against
// the grid mean.
func averageHash(img image.Image, size int) Hash {
	px := grayResize(img, size, size)
	var sum float64
	for _, v := range px {
		sum += v
	}
	mean := sum / float64(len(px))

	h := newHash(MethodAHash, size)
	for i, v := range px {
		if v >= mean {
			h.setBit(i)
		}
	}
	return h
}

// perceptualHash runs a 2-D DCT over an oversampled grayscale grid and
// keeps the sign of each low-frequency coefficient relative to the block
// median. The DC coefficient participates in the median like every other
// cell.
func perceptualHash(img image.Image, size int) Hash {
	wide := size * phashScale
	px := grayResize(img, wide, wide)
	coefs := dct2d(px, wide)

	block := make([]float64, 0, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			block = append(block, coefs[y*wide+x])
		}
	}
	med := median(block)

	h := newHash(MethodPHash, size)
	for i, v := range block {
		if v > med {
			h.setBit(i)
		}
	}
	return h
}

// differenceHash encodes whether each cell is brighter than its left
// neighbor, scanning a grid one column wider than the hash.
func differenceHash(img image.Image, size int) Hash {
	px := grayResize(img, size+1, size)

	h := newHash(MethodDHash, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if px[y*(size+1)+x+1] > px[y*(size+1)+x] {
				h.setBit(y*size + x)
			}
		}
	}
	return h
}

// waveletHash thresholds the top-left band of a full Haar decomposition
// against its median. The scaling coefficient at the origin is zeroed first
// so overall brightness does not dominate the band.
func waveletHash(img image.Image, size int) Hash {
	scale := whashMinScale
	for scale < size {
		scale *= 2
	}
	gray := image.NewGray(image.Rect(0, 0, scale, scale))
	xdraw.CatmullRom.Scale(gray, gray.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	matrix := haar.Transform(gray)
	band := make([]float64, 0, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			band = append(band, matrix.Coefs[y*scale+x][0])
		}
	}
	band[0] = 0
	med := median(band)

	h := newHash(MethodWHash, size)
	for i, v := range band {
		if v > med {
			h.setBit(i)
		}
	}
	return h
}

// grayResize scales the image to w x h with a Catmull-Rom kernel and
// returns the luma plane as float64 values in [0, 255], row-major.
func grayResize(img image.Image, w, h int) []float64 {
	gray := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(gray, gray.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := y * gray.Stride
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(gray.Pix[row+x])
		}
	}
	return out
}

// dct2d applies an unnormalized DCT-II along rows and then columns of a
// square n x n grid. Only coefficient ordering matters for hashing, so the
// uniform scale factor is left in place.
func dct2d(px []float64, n int) []float64 {
	rows := make([]float64, n*n)
	line := make([]float64, n)
	for y := 0; y < n; y++ {
		copy(line, px[y*n:(y+1)*n])
		dst := rows[y*n : (y+1)*n]
		dct1d(line, dst)
	}

	out := make([]float64, n*n)
	col := make([]float64, n)
	res := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = rows[y*n+x]
		}
		dct1d(col, res)
		for y := 0; y < n; y++ {
			out[y*n+x] = res[y]
		}
	}
	return out
}

func dct1d(in, out []float64) {
	n := len(in)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += in[i] * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		out[k] = 2 * sum
	}
}

// median returns the middle value of the input, averaging the two middle
// values for even lengths. The input is not modified.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
