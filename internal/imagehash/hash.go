package imagehash

import (
	"fmt"
	"math/bits"
)

const hexDigits = "0123456789abcdef"

// Hash is a fixed-length perceptual fingerprint. Bits are packed row-major,
// most significant bit first, so String renders the same hex regardless of
// word boundaries. Hashes only compare against hashes of the same method
// and size.
type Hash struct {
	method Method
	size   int
	words  []uint64
}

func newHash(method Method, size int) Hash {
	n := size * size
	return Hash{method: method, size: size, words: make([]uint64, (n+63)/64)}
}

// Method reports the algorithm that produced the hash.
func (h Hash) Method() Method { return h.method }

// Size reports the grid dimension; the hash carries Size*Size bits.
func (h Hash) Size() int { return h.size }

// BitLength reports the number of significant bits.
func (h Hash) BitLength() int { return h.size * h.size }

func (h Hash) setBit(i int) {
	h.words[i/64] |= 1 << (63 - uint(i%64))
}

func (h Hash) bit(i int) bool {
	return h.words[i/64]&(1<<(63-uint(i%64))) != 0
}

// String renders the bits as lowercase hex, padded to a whole nibble.
func (h Hash) String() string {
	n := h.BitLength()
	out := make([]byte, (n+3)/4)
	for i := range out {
		var v byte
		for j := 0; j < 4; j++ {
			v <<= 1
			if idx := i*4 + j; idx < n && h.bit(idx) {
				v |= 1
			}
		}
		out[i] = hexDigits[v]
	}
	return string(out)
}

// ParseHex reconstructs a hash from the output of String.
func ParseHex(method Method, size int, encoded string) (Hash, error) {
	if size < 2 {
		return Hash{}, fmt.Errorf("hash size must be at least 2, got %d", size)
	}
	h := newHash(method, size)
	n := h.BitLength()
	if want := (n + 3) / 4; len(encoded) != want {
		return Hash{}, fmt.Errorf("hash %q has %d hex digits, want %d for size %d", encoded, len(encoded), want, size)
	}
	for i := 0; i < len(encoded); i++ {
		v, err := hexValue(encoded[i])
		if err != nil {
			return Hash{}, err
		}
		for j := 0; j < 4; j++ {
			if idx := i*4 + j; idx < n && v&(1<<uint(3-j)) != 0 {
				h.setBit(idx)
			}
		}
	}
	return h, nil
}

func hexValue(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q in hash", c)
	}
}

// Distance counts differing bits between two comparable hashes.
func Distance(a, b Hash) (int, error) {
	if a.method != b.method {
		return 0, fmt.Errorf("hash method mismatch: %s vs %s", a.method, b.method)
	}
	if a.size != b.size {
		return 0, fmt.Errorf("hash length mismatch: %d vs %d bits", a.BitLength(), b.BitLength())
	}
	var d int
	for i := range a.words {
		d += bits.OnesCount64(a.words[i] ^ b.words[i])
	}
	return d, nil
}

// Similarity maps Hamming distance onto [0, 1], where 1 means identical.
func Similarity(a, b Hash) (float64, error) {
	d, err := Distance(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - float64(d)/float64(a.BitLength()), nil
}
