// Package idset provides a membership index over external string identifiers,
// backed by a Bloom filter with an exact map behind it.
package idset

import (
	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultFalsePositiveRate is the Bloom filter false positive rate used when
// the caller has no reason to pick another one.
const DefaultFalsePositiveRate = 0.001

// minCapacity keeps the Bloom filter from being sized for zero elements.
const minCapacity = 16

// Set is an append-only membership index over string IDs. The Bloom filter
// rejects most misses without touching the map; the map makes positives exact.
// A Set is not safe for concurrent use.
type Set struct {
	ids   map[string]struct{}
	bloom *bloom.BloomFilter
}

// New creates a Set sized for the expected number of IDs.
func New(capacity int) *Set {
	if capacity < minCapacity {
		capacity = minCapacity
	}

	return &Set{
		ids:   make(map[string]struct{}, capacity),
		bloom: bloom.NewWithEstimates(uint(capacity), DefaultFalsePositiveRate),
	}
}

// FromIDs creates a Set containing the given IDs. Empty IDs are ignored.
func FromIDs(ids []string) *Set {
	set := New(len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

// Add inserts an ID into the set. Empty IDs are ignored.
func (s *Set) Add(id string) {
	if id == "" {
		return
	}

	if _, exists := s.ids[id]; exists {
		return
	}

	s.ids[id] = struct{}{}
	s.bloom.AddString(id)
}

// Has reports whether the ID is in the set.
func (s *Set) Has(id string) bool {
	if !s.bloom.TestString(id) {
		return false
	}

	_, exists := s.ids[id]
	return exists
}

// Size returns the number of IDs in the set.
func (s *Set) Size() int {
	return len(s.ids)
}
