package models

import "time"

// Task represents one admitted URL awaiting its fetch-then-handle cycle.
// A Task is created by seed submission or by a handler's AddTask call,
// consumed exactly once by a worker, and never redispatched.
type Task struct {
	URL        string // Original URL as submitted (passed to the fetcher)
	Normalized string // Normalized form used as the dedup identity
	Domain     string // Lowercased host, the throttling and filtering key
}

// Stats is a snapshot of a crawl run's counters.
type Stats struct {
	Completed int64         // Tasks whose fetch succeeded (handler outcome does not matter)
	Failed    int64         // Tasks whose fetch failed terminally
	Discarded int64         // Submissions rejected by the domain filter
	Duplicate int64         // Submissions rejected by the dedup set
	Elapsed   time.Duration // Time since the run started
}

// RatePerMinute returns the average number of completed fetches per
// minute over the run so far.
func (s Stats) RatePerMinute() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Completed) / s.Elapsed.Minutes()
}
