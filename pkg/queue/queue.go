package queue

import (
	"sync"

	"github.com/sirupsen/logrus"

	"webspider/pkg/models"
)

// TaskQueue is an unbounded FIFO of pending crawl tasks, safe for
// concurrent push from many in-flight handler completions and concurrent
// pop from many idle workers. Ordering is first discovered, first
// fetched; it is a fairness policy, not a correctness requirement.
type TaskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond // Signals waiting workers when an item arrives or the queue closes
	items  []*models.Task
	closed bool
	log    *logrus.Entry
}

// NewTaskQueue creates an open, empty TaskQueue.
func NewTaskQueue(log *logrus.Entry) *TaskQueue {
	q := &TaskQueue{log: log}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a task. Returns false if the queue has been closed, in
// which case the task is dropped and the caller must undo any in-flight
// accounting it performed for it.
func (q *TaskQueue) Push(task *models.Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.log.WithField("url", task.URL).Debug("Dropping push to closed queue")
		return false
	}
	q.items = append(q.items, task)
	q.cond.Signal() // Wake one waiting worker
	return true
}

// Pop removes and returns the oldest task. It blocks while the queue is
// empty and open. Returns nil and false once the queue is closed and
// drained, signalling the calling worker to exit.
func (q *TaskQueue) Pop() (*models.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.closed {
			return nil, false
		}
		q.cond.Wait()
	}

	task := q.items[0]
	q.items[0] = nil // release the slot for GC
	q.items = q.items[1:]
	return task, true
}

// Close marks the queue closed and wakes every blocked Pop. Pending
// items remain poppable; only new pushes are refused.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
