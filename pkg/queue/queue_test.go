package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"webspider/pkg/models"
)

func newTestQueue() *TaskQueue {
	return NewTaskQueue(logrus.NewEntry(logrus.New()))
}

func task(url string) *models.Task {
	return &models.Task{URL: url, Normalized: url, Domain: "x.com"}
}

func TestTaskQueue_FIFOOrder(t *testing.T) {
	q := newTestQueue()

	for i := range 5 {
		if !q.Push(task(fmt.Sprintf("http://x.com/%d", i))) {
			t.Fatalf("push %d failed", i)
		}
	}
	if q.Len() != 5 {
		t.Fatalf("expected len 5, got %d", q.Len())
	}

	for i := range 5 {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d returned closed", i)
		}
		want := fmt.Sprintf("http://x.com/%d", i)
		if got.URL != want {
			t.Errorf("pop %d: got %s, want %s", i, got.URL, want)
		}
	}
}

func TestTaskQueue_PopBlocksUntilPush(t *testing.T) {
	q := newTestQueue()

	popped := make(chan *models.Task, 1)
	go func() {
		item, ok := q.Pop()
		if !ok {
			t.Error("pop returned closed")
		}
		popped <- item
	}()

	// Give the popper time to block.
	select {
	case <-popped:
		t.Fatal("pop returned before any push")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(task("http://x.com/late"))
	select {
	case item := <-popped:
		if item.URL != "http://x.com/late" {
			t.Errorf("got %s, want the pushed task", item.URL)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pop did not wake after push")
	}
}

func TestTaskQueue_CloseUnblocksAllPoppers(t *testing.T) {
	q := newTestQueue()
	const poppers = 5

	var wg sync.WaitGroup
	wg.Add(poppers)
	for range poppers {
		go func() {
			defer wg.Done()
			if _, ok := q.Pop(); ok {
				t.Error("expected pop on closed empty queue to return false")
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	q.Close()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not unblock all poppers")
	}
}

func TestTaskQueue_PendingItemsPoppableAfterClose(t *testing.T) {
	q := newTestQueue()
	q.Push(task("http://x.com/a"))
	q.Push(task("http://x.com/b"))
	q.Close()

	if q.Push(task("http://x.com/c")) {
		t.Fatal("push to closed queue should return false")
	}

	for _, want := range []string{"http://x.com/a", "http://x.com/b"} {
		got, ok := q.Pop()
		if !ok || got.URL != want {
			t.Fatalf("expected %s still poppable after close, got %v ok=%v", want, got, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("drained closed queue should report closed")
	}
}

func TestTaskQueue_ConcurrentPushPop(t *testing.T) {
	q := newTestQueue()
	const producers = 10
	const perProducer = 100
	total := producers * perProducer

	var pushWg sync.WaitGroup
	pushWg.Add(producers)
	for p := range producers {
		go func() {
			defer pushWg.Done()
			for i := range perProducer {
				q.Push(task(fmt.Sprintf("http://x.com/p%d/i%d", p, i)))
			}
		}()
	}

	seen := make(map[string]int)
	var seenMu sync.Mutex
	var popWg sync.WaitGroup
	popWg.Add(4)
	for range 4 {
		go func() {
			defer popWg.Done()
			for {
				item, ok := q.Pop()
				if !ok {
					return
				}
				seenMu.Lock()
				seen[item.URL]++
				seenMu.Unlock()
			}
		}()
	}

	pushWg.Wait()
	// All pushes done; close once the queue is drained.
	for q.Len() > 0 {
		time.Sleep(time.Millisecond)
	}
	q.Close()
	popWg.Wait()

	if len(seen) != total {
		t.Fatalf("expected %d distinct items popped, got %d", total, len(seen))
	}
	for url, count := range seen {
		if count != 1 {
			t.Errorf("item %s popped %d times", url, count)
		}
	}
}
