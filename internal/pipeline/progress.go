package pipeline

import "time"

// ProgressReporter receives progress updates during a build run.
type ProgressReporter interface {
	// OnProgress is called after each completed pair with the current
	// counts, elapsed time, and remaining-time estimate.
	OnProgress(done, total int, elapsed, eta time.Duration)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(done, total int, elapsed, eta time.Duration)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(done, total int, elapsed, eta time.Duration) {
	f(done, total, elapsed, eta)
}

// estimateRemaining extrapolates remaining run time from average
// per-pair time so far. Returns 0 until the first pair completes.
func estimateRemaining(elapsed time.Duration, done, total int) time.Duration {
	if done == 0 || total <= done {
		return 0
	}
	perPair := elapsed / time.Duration(done)
	return perPair * time.Duration(total-done)
}
