package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSet_MarkIfNew_Basic(t *testing.T) {
	s := NewSet()

	if !s.MarkIfNew("http://x.com/1") {
		t.Fatal("first mark should return true")
	}
	if s.MarkIfNew("http://x.com/1") {
		t.Fatal("second mark of the same URL should return false")
	}
	if !s.MarkIfNew("http://x.com/2") {
		t.Fatal("distinct URL should return true")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", s.Len())
	}
}

func TestSet_Contains(t *testing.T) {
	s := NewSet()
	if s.Contains("http://x.com/") {
		t.Fatal("empty set should not contain anything")
	}
	s.MarkIfNew("http://x.com/")
	if !s.Contains("http://x.com/") {
		t.Fatal("marked URL should be contained")
	}
}

// Exactly one of many concurrent MarkIfNew calls with an equal URL may
// succeed.
func TestSet_MarkIfNew_ConcurrentSingleWinner(t *testing.T) {
	s := NewSet()
	const goroutines = 100

	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			<-start
			if s.MarkIfNew("http://x.com/contended") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly 1 successful mark, got %d", wins.Load())
	}
}

func TestSet_MarkIfNew_ConcurrentDistinctURLs(t *testing.T) {
	s := NewSet()
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			url := fmt.Sprintf("http://x.com/page-%d", i)
			if !s.MarkIfNew(url) {
				t.Errorf("first mark of %s should succeed", url)
			}
		}()
	}
	wg.Wait()

	if s.Len() != goroutines {
		t.Errorf("expected %d entries, got %d", goroutines, s.Len())
	}
}
