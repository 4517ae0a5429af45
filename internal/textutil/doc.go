// Package textutil provides the small text transformations shared by the
// chat pipeline, identification responses, and CLI output.
//
// PokeAPI resource names are lowercase hyphenated slugs; the helpers here
// convert between that form and display text, and normalize free-form user
// questions for cache keys and keyword matching.
package textutil
