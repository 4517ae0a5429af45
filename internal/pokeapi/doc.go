// Package pokeapi provides a typed client for the public PokéAPI.
//
// The client caches successful JSON responses when a cache is attached and
// treats upstream 404s as "name unknown" rather than failures, which keeps
// lookup call sites free of status-code handling.
package pokeapi
