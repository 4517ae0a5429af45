package imagehash

import (
	"fmt"
	"strings"
)

// Method selects the perceptual hashing algorithm.
type Method string

const (
	// MethodAHash thresholds grayscale pixels against their mean.
	MethodAHash Method = "ahash"
	// MethodPHash thresholds low-frequency DCT coefficients against their median.
	MethodPHash Method = "phash"
	// MethodDHash encodes the sign of the horizontal intensity gradient.
	MethodDHash Method = "dhash"
	// MethodWHash thresholds the low-frequency Haar wavelet band against its median.
	MethodWHash Method = "whash"
)

// ParseMethod validates a method name.
func ParseMethod(value string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(value))) {
	case MethodAHash:
		return MethodAHash, nil
	case MethodPHash:
		return MethodPHash, nil
	case MethodDHash:
		return MethodDHash, nil
	case MethodWHash:
		return MethodWHash, nil
	default:
		return "", fmt.Errorf("unknown hash method %q", value)
	}
}

func (m Method) String() string { return string(m) }
