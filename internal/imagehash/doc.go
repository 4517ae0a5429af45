// Package imagehash computes perceptual fingerprints of images.
//
// Four algorithms are available: average (ahash), DCT-based (phash),
// gradient (dhash), and Haar wavelet (whash). All of them reduce an image
// to a size*size bit grid; two hashes are comparable only when method and
// size agree, and Similarity maps their Hamming distance onto [0, 1].
package imagehash
