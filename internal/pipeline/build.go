package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stanstrup/rePredRet/internal/calib"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Result is the outcome of one pair build. Failures carry a message
// instead of a model; they are recorded, never retried within a run.
type Result struct {
	Sys1    string
	Sys2    string
	Status  string
	Model   *calib.Model
	Message string
}

// BuildStats summarises a build run.
type BuildStats struct {
	RunID        string        `json:"run_id"`
	TotalPairs   int           `json:"total_pairs"`
	Built        int           `json:"built"`
	Failed       int           `json:"failed"`
	UpToDate     int           `json:"up_to_date"`
	BelowOverlap int           `json:"below_overlap"`
	Evicted      int           `json:"evicted"`
	Batches      int           `json:"batches"`
	Duration     time.Duration `json:"-"`
}

// Builder runs scheduled pair jobs through a bounded worker pool,
// batch by batch.
type Builder struct {
	batchSize int
	workers   int
	fitOpts   calib.Options
	logger    zerolog.Logger
	progress  ProgressReporter
}

// NewBuilder creates a builder. batchSize and workers must be positive.
func NewBuilder(batchSize, workers int, fitOpts calib.Options, logger zerolog.Logger) *Builder {
	return &Builder{
		batchSize: batchSize,
		workers:   workers,
		fitOpts:   fitOpts,
		logger:    logger,
	}
}

// SetProgressReporter sets the progress reporter for the builder.
func (b *Builder) SetProgressReporter(reporter ProgressReporter) {
	b.progress = reporter
}

// Run fits every scheduled pair and returns one result per job, in job
// order. Fit failures become failure results; only context cancellation
// aborts the run.
func (b *Builder) Run(ctx context.Context, jobs []PairJob) ([]Result, *BuildStats, error) {
	start := time.Now()
	stats := &BuildStats{
		RunID:      uuid.NewString(),
		TotalPairs: len(jobs),
	}

	results := make([]Result, len(jobs))
	total := len(jobs)
	done := 0
	var mu sync.Mutex

	for batchStart := 0; batchStart < len(jobs); batchStart += b.batchSize {
		batchEnd := batchStart + b.batchSize
		if batchEnd > len(jobs) {
			batchEnd = len(jobs)
		}
		stats.Batches++

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.workers)

		for i := batchStart; i < batchEnd; i++ {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				results[i] = b.fitPair(jobs[i])

				mu.Lock()
				done++
				d := done
				mu.Unlock()

				if b.progress != nil {
					elapsed := time.Since(start)
					b.progress.OnProgress(d, total, elapsed, estimateRemaining(elapsed, d, total))
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	for _, r := range results {
		if r.Status == StatusSuccess {
			stats.Built++
		} else {
			stats.Failed++
		}
	}
	stats.Duration = time.Since(start)

	return results, stats, nil
}

// fitPair builds one model and converts fit errors into failure results.
func (b *Builder) fitPair(job PairJob) Result {
	m, err := calib.Fit(job.Sys1, job.Sys2, job.Pairs, b.fitOpts)
	if err != nil {
		b.logger.Warn().
			Str("sys1", job.Sys1).
			Str("sys2", job.Sys2).
			Int("pairs", len(job.Pairs)).
			Err(err).
			Msg("model fit failed")
		return Result{Sys1: job.Sys1, Sys2: job.Sys2, Status: StatusFailure, Message: err.Error()}
	}

	m.Fingerprint1 = job.Fingerprint1
	m.Fingerprint2 = job.Fingerprint2

	b.logger.Debug().
		Str("sys1", job.Sys1).
		Str("sys2", job.Sys2).
		Int("compounds", m.Stats.Compounds).
		Float64("median_ci_width", m.Stats.MedianCIWidth).
		Msg("model fitted")

	return Result{Sys1: job.Sys1, Sys2: job.Sys2, Status: StatusSuccess, Model: m}
}
