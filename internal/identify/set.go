package identify

import (
	"errors"
	"fmt"
	"sort"

	"pokechat/internal/imagehash"
)

// Entry pairs a reference entity with its precomputed hash.
type Entry struct {
	Name string
	Hash imagehash.Hash
}

// Set is the immutable reference table. Entries are sorted by name at build
// time and never mutated afterwards, so lookups need no locking and ties on
// equal similarity always resolve to the lexicographically smallest name.
type Set struct {
	method  imagehash.Method
	size    int
	entries []Entry
}

// NewSet builds a reference table. Every entry must be hashed with the
// given method and size, and names must be unique.
func NewSet(method imagehash.Method, size int, entries []Entry) (*Set, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for i, e := range sorted {
		if e.Name == "" {
			return nil, errors.New("reference entry with empty name")
		}
		if e.Hash.Method() != method || e.Hash.Size() != size {
			return nil, fmt.Errorf("reference %q hashed with %s/%d, set expects %s/%d",
				e.Name, e.Hash.Method(), e.Hash.Size(), method, size)
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return nil, fmt.Errorf("duplicate reference name %q", e.Name)
		}
	}
	return &Set{method: method, size: size, entries: sorted}, nil
}

// Len reports the number of reference entries.
func (s *Set) Len() int { return len(s.entries) }

// Method reports the hash method every entry was computed with.
func (s *Set) Method() imagehash.Method { return s.method }

// Size reports the hash grid dimension every entry was computed with.
func (s *Set) Size() int { return s.size }

// Names returns the entity names in their sorted order.
func (s *Set) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

// Best scans the table for the entry most similar to the query hash. A
// later entry replaces the running best only when strictly more similar.
func (s *Set) Best(query imagehash.Hash) (string, float64, error) {
	if len(s.entries) == 0 {
		return "", 0, errors.New("reference set is empty")
	}

	bestName := ""
	bestScore := -1.0
	for _, e := range s.entries {
		score, err := imagehash.Similarity(query, e.Hash)
		if err != nil {
			return "", 0, fmt.Errorf("compare against %q: %w", e.Name, err)
		}
		if score > bestScore {
			bestName = e.Name
			bestScore = score
		}
	}
	return bestName, bestScore, nil
}
