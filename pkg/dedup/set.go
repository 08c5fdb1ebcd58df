// Package dedup provides the seen-URL set that guarantees a URL is
// scheduled at most once per crawl run.
package dedup

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Set is a concurrency-safe membership set over normalized URL strings.
// URLs are stored as 64-bit xxhash digests rather than full strings to
// keep memory flat on large crawls.
type Set struct {
	mu   sync.Mutex
	seen map[uint64]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[uint64]struct{})}
}

// MarkIfNew atomically tests and marks the normalized URL. It returns
// true exactly once per distinct URL across the Set's lifetime and false
// on every subsequent call with an equal URL. The test and insert happen
// under one lock acquisition, so two concurrent callers with the same URL
// can never both observe true.
func (s *Set) MarkIfNew(normalizedURL string) bool {
	h := xxhash.Sum64String(normalizedURL)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.seen[h]; exists {
		return false
	}
	s.seen[h] = struct{}{}
	return true
}

// Contains reports whether the normalized URL has been marked.
func (s *Set) Contains(normalizedURL string) bool {
	h := xxhash.Sum64String(normalizedURL)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.seen[h]
	return exists
}

// Len returns the number of marked URLs.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
