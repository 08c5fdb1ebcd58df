// Package spider implements the crawl scheduling engine: a task queue
// coupled to global and per-domain permit pools, URL deduplication, and
// domain filtering, driving fetch-then-handle cycles until the queue
// drains.
package spider

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"webspider/pkg/config"
	"webspider/pkg/dedup"
	"webspider/pkg/fetch"
	"webspider/pkg/filter"
	"webspider/pkg/models"
	"webspider/pkg/parse"
	"webspider/pkg/queue"
	"webspider/pkg/throttle"
	"webspider/pkg/utils"
)

// Submitter is the add-task capability handed to handlers. Every URL
// submitted through it passes the domain filter and the dedup set before
// being queued; rejected URLs are discarded silently.
type Submitter interface {
	AddTask(urls ...string)
}

// Handler consumes a fetched response and may discover new URLs via the
// Submitter. It is invoked once per successfully fetched task. A handler
// error (or panic) is isolated to its task: it is logged, the task
// completes, and any URLs submitted before the failure stay queued.
//
// A handler that never returns stalls its task's permits indefinitely;
// the engine cannot prevent that.
type Handler func(ctx context.Context, resp *fetch.Response, submit Submitter) error

// Spider owns all state for one crawl run: the dedup set, the throttle
// pools, the task queue, and the in-flight accounting. Construct a fresh
// Spider per run; Run may be called once.
type Spider struct {
	cfg      *config.Config
	log      *logrus.Entry // contextualized with run_id
	filter   *filter.DomainFilter
	seen     *dedup.Set
	tasks    *queue.TaskQueue
	throttle *throttle.Throttle
	fetcher  fetch.Fetcher
	limiter  *fetch.DomainLimiter // nil when politeness is disabled
	handler  Handler

	// wg is the in-flight counter: incremented at submit time (not at
	// dispatch time) so a task discovered by one handler and not yet
	// dispatched still counts, and decremented when the task's cycle
	// concludes. Termination = wg drained.
	wg sync.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64
	discarded atomic.Int64
	duplicate atomic.Int64

	startTime time.Time
	started   atomic.Bool
}

// New creates a Spider for a single run. cfg is validated (warnings
// logged, invalid capacities fatal) and defaults applied. fetcher is
// required; handler may be nil for a fetch-only crawl.
func New(cfg *config.Config, fetcher fetch.Fetcher, handler Handler, baseLog *logrus.Logger) (*Spider, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher is required", utils.ErrConfigValidation)
	}

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	log := baseLog.WithField("run_id", uuid.New().String())
	for _, w := range warnings {
		log.Warn(w)
	}

	s := &Spider{
		cfg:      cfg,
		log:      log,
		filter:   filter.New(cfg.AllowedDomains, cfg.MatchSubdomains),
		seen:     dedup.NewSet(),
		tasks:    queue.NewTaskQueue(log),
		throttle: throttle.New(cfg.MaxWorkers, cfg.WorkersPerDomain, log),
		fetcher:  fetcher,
		handler:  handler,
	}
	if cfg.PerDomainRPS > 0 {
		s.limiter = fetch.NewDomainLimiter(cfg.PerDomainRPS)
	}
	return s, nil
}

// Run submits the seed URLs and blocks until the run reaches terminal
// state: queue empty and no in-flight work, or ctx cancelled and the
// in-flight tasks drained. Per-task fetch and handler failures never
// abort the run; Run returns non-nil only for cancellation or reuse of
// a finished Spider.
func (s *Spider) Run(ctx context.Context, seeds ...string) error {
	if !s.started.CompareAndSwap(false, true) {
		return utils.ErrRunFinished
	}
	s.startTime = time.Now()
	s.log.WithFields(logrus.Fields{
		"max_workers":        s.cfg.MaxWorkers,
		"workers_per_domain": s.cfg.WorkersPerDomain,
		"seeds":              len(seeds),
	}).Info("Crawl starting")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Seed before anything can observe an empty in-flight counter.
	for _, seed := range seeds {
		s.submit(seed, true)
	}
	if s.tasks.Len() == 0 {
		s.log.Warn("No seed URL was admitted; crawl is terminal immediately")
	}

	// Unblock queue pops when the caller cancels. Pending tasks remain
	// poppable so workers can drain the in-flight accounting.
	go func() {
		<-runCtx.Done()
		s.tasks.Close()
	}()

	var workersWg sync.WaitGroup
	for i := 1; i <= s.cfg.MaxWorkers; i++ {
		workersWg.Add(1)
		go s.worker(runCtx, s.log.WithField("worker_id", i), &workersWg)
	}

	progDone := make(chan struct{})
	go s.reportProgress(runCtx, progDone)

	// Wait for every submitted task to conclude.
	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-runCtx.Done():
		s.log.Warnf("Cancellation requested (%v), draining in-flight tasks...", runCtx.Err())
		<-drained
	}

	close(progDone)
	s.tasks.Close()
	workersWg.Wait()

	stats := s.Stats()
	s.log.WithFields(logrus.Fields{
		"completed": stats.Completed,
		"failed":    stats.Failed,
		"discarded": stats.Discarded,
		"duplicate": stats.Duplicate,
		"duration":  stats.Elapsed.String(),
		"rate_min":  fmt.Sprintf("%.2f", stats.RatePerMinute()),
	}).Info("Crawl finished")

	return ctx.Err()
}

// Stats returns a snapshot of the run's counters.
func (s *Spider) Stats() models.Stats {
	elapsed := time.Duration(0)
	if !s.startTime.IsZero() {
		elapsed = time.Since(s.startTime)
	}
	return models.Stats{
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
		Discarded: s.discarded.Load(),
		Duplicate: s.duplicate.Load(),
		Elapsed:   elapsed,
	}
}

// submit runs a URL through admission: parse, filter, dedup, enqueue.
// Rejections at any stage are silent discards, not errors. The in-flight
// counter is incremented before the push so termination detection can
// never race ahead of a freshly discovered task.
func (s *Spider) submit(rawURL string, seed bool) {
	parsed, normalized, domain, err := parse.ParseTaskURL(rawURL)
	if err != nil {
		s.discarded.Add(1)
		s.log.WithField("url", rawURL).Debugf("Discarding unparsable URL: %v", err)
		return
	}

	if (!seed || !s.cfg.UnfilteredSeeds) && !s.filter.Admit(parsed) {
		s.discarded.Add(1)
		s.log.WithFields(logrus.Fields{"url": rawURL, "domain": domain}).Debug("Domain not allowed, discarding")
		return
	}

	if !s.seen.MarkIfNew(normalized) {
		s.duplicate.Add(1)
		return
	}

	s.wg.Add(1)
	if !s.tasks.Push(&models.Task{URL: rawURL, Normalized: normalized, Domain: domain}) {
		// Queue already closed: only possible after cancellation. Undo
		// the in-flight increment so the drain can complete.
		s.wg.Done()
	}
}

// worker pops tasks until the queue is closed and drained. After
// cancellation it keeps popping but declines to dispatch, so queued
// tasks still settle their in-flight accounting.
func (s *Spider) worker(ctx context.Context, workerLog *logrus.Entry, workersWg *sync.WaitGroup) {
	defer workersWg.Done()
	workerLog.Debug("Worker starting")
	defer workerLog.Debug("Worker finished")

	for {
		task, ok := s.tasks.Pop()
		if !ok {
			return
		}
		if ctx.Err() != nil {
			workerLog.WithField("url", task.URL).Debug("Shutdown in progress, not dispatching")
			s.wg.Done()
			continue
		}
		s.process(ctx, task, workerLog)
	}
}

// process runs one task's fetch-then-handle cycle while holding a
// global permit and a domain permit. The deferred epilogue releases the
// permits and decrements the in-flight counter on every exit, including
// handler panics.
func (s *Spider) process(ctx context.Context, task *models.Task, workerLog *logrus.Entry) {
	taskLog := workerLog.WithFields(logrus.Fields{"url": task.URL, "domain": task.Domain})
	startTime := time.Now()

	var release func()
	defer func() {
		if r := recover(); r != nil {
			taskLog.WithFields(logrus.Fields{
				"panic_info":  r,
				"duration":    time.Since(startTime).String(),
				"stack_trace": string(debug.Stack()),
			}).Error("PANIC recovered in task")
		}
		if release != nil {
			release()
		}
		s.wg.Done()
	}()

	var err error
	release, err = s.throttle.Acquire(ctx, task.Domain)
	if err != nil {
		taskLog.WithField("category", utils.CategorizeError(err)).Debugf("Task aborted before dispatch: %v", err)
		return
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, task.Domain); err != nil {
			taskLog.Debugf("Task aborted waiting for rate limit: %v", err)
			return
		}
	}

	resp, err := s.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		s.failed.Add(1)
		taskLog.WithFields(logrus.Fields{
			"category": utils.CategorizeError(err),
			"duration": time.Since(startTime).String(),
		}).Warnf("Fetch failed: %v", err)
		return
	}

	s.completed.Add(1)
	taskLog.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration":    time.Since(startTime).String(),
	}).Infof("(%d) GET %s", resp.StatusCode, task.URL)

	if s.handler == nil {
		return
	}
	if handlerErr := s.handler(ctx, resp, &taskSubmitter{s}); handlerErr != nil {
		taskLog.Warnf("Handler failed: %v", handlerErr)
	}
}

// taskSubmitter binds the add-task capability to a running Spider. It is
// only handed to handlers, which execute while their own task is still
// in flight, so submission can never race past termination.
type taskSubmitter struct {
	s *Spider
}

func (ts *taskSubmitter) AddTask(urls ...string) {
	for _, u := range urls {
		ts.s.submit(u, false)
	}
}

// reportProgress periodically logs queue depth and counters until the
// run finishes or is cancelled.
func (s *Spider) reportProgress(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.Stats()
			s.log.WithFields(logrus.Fields{
				"queue_len": s.tasks.Len(),
				"completed": stats.Completed,
				"failed":    stats.Failed,
				"rate_min":  fmt.Sprintf("%.2f", stats.RatePerMinute()),
			}).Info("Crawl progress")
		}
	}
}
