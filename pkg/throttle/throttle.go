// Package throttle enforces the crawl's two-level concurrency limits: a
// global permit pool shared by all domains and a lazily created
// fixed-capacity pool per domain.
package throttle

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"webspider/pkg/utils"
)

// Throttle manages the global and per-domain permit pools. A task may
// only execute while holding one permit from each pool; Acquire hands
// both out as a pair and the returned release func returns both.
//
// Acquisition order is fixed at this single call site: domain permit
// first, then global. One consistent order across all tasks rules out
// circular waits between tasks targeting different domains.
type Throttle struct {
	global    *semaphore.Weighted
	globalCap int64
	perDomain int64
	mu        sync.Mutex
	domains   map[string]*semaphore.Weighted
	log       *logrus.Entry
}

// New creates a Throttle with the given global and per-domain
// capacities. Both must be positive; Config.Validate guarantees that
// before a run starts.
func New(maxWorkers, workersPerDomain int, log *logrus.Entry) *Throttle {
	return &Throttle{
		global:    semaphore.NewWeighted(int64(maxWorkers)),
		globalCap: int64(maxWorkers),
		perDomain: int64(workersPerDomain),
		domains:   make(map[string]*semaphore.Weighted),
		log:       log,
	}
}

// Acquire blocks until the caller holds one permit for domain and one
// global permit, then returns a release func that returns both. If ctx
// is cancelled while waiting, no permits remain held and an error
// wrapping ctx.Err() is returned. Pools are created on first sight of a
// domain and never shrunk mid-run. The release func is safe to call at
// most once per Acquire; extra calls are no-ops.
func (t *Throttle) Acquire(ctx context.Context, domain string) (release func(), err error) {
	domainSem := t.domainPool(domain)

	if acqErr := domainSem.Acquire(ctx, 1); acqErr != nil {
		return nil, fmt.Errorf("%w: domain permit for '%s': %w", utils.ErrAcquireAborted, domain, acqErr)
	}
	if acqErr := t.global.Acquire(ctx, 1); acqErr != nil {
		domainSem.Release(1)
		return nil, fmt.Errorf("%w: global permit: %w", utils.ErrAcquireAborted, acqErr)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.global.Release(1)
			domainSem.Release(1)
		})
	}, nil
}

// AtFullCapacity reports whether the global pool and every domain pool
// have all their permits available, i.e. nothing leaked. Only meaningful
// once a run has reached terminal state; concurrent holders make it
// return false.
func (t *Throttle) AtFullCapacity() bool {
	t.mu.Lock()
	pools := make([]*semaphore.Weighted, 0, len(t.domains))
	for _, sem := range t.domains {
		pools = append(pools, sem)
	}
	t.mu.Unlock()

	for _, sem := range pools {
		if !sem.TryAcquire(t.perDomain) {
			return false
		}
		sem.Release(t.perDomain)
	}
	if !t.global.TryAcquire(t.globalCap) {
		return false
	}
	t.global.Release(t.globalCap)
	return true
}

// DomainCount returns the number of domain pools created so far.
func (t *Throttle) DomainCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.domains)
}

// domainPool returns the permit pool for domain, creating it on first
// sight with the configured per-domain capacity.
func (t *Throttle) domainPool(domain string) *semaphore.Weighted {
	t.mu.Lock()
	defer t.mu.Unlock()
	sem, exists := t.domains[domain]
	if !exists {
		sem = semaphore.NewWeighted(t.perDomain)
		t.domains[domain] = sem
		t.log.WithFields(logrus.Fields{"domain": domain, "limit": t.perDomain}).Debug("Created domain permit pool")
	}
	return sem
}
