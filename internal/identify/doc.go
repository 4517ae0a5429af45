// Package identify matches images against a reference table of perceptual
// hashes.
//
// The table is built once at startup, either from a local directory or by
// warming PokéAPI sprites, and is immutable afterwards. Identification
// decodes the query image, hashes it with the configured method, and keeps
// the most similar entry; scores below the threshold report a null entity
// while still carrying the best score.
package identify
