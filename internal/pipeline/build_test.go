package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stanstrup/rePredRet/internal/calib"
	"github.com/stanstrup/rePredRet/internal/dataset"
)

func fittableJob(sys1, sys2 string) PairJob {
	pairs := make([]dataset.Pair, 12)
	for i := range pairs {
		x := float64(i + 1)
		pairs[i] = dataset.Pair{Compound: fmt.Sprintf("cmp%02d", i), RT1: x, RT2: 2*x + 1}
	}
	return PairJob{Sys1: sys1, Sys2: sys2, Fingerprint1: "f1", Fingerprint2: "f2", Pairs: pairs}
}

func degenerateJob(sys1, sys2 string) PairJob {
	return PairJob{
		Sys1: sys1,
		Sys2: sys2,
		Pairs: []dataset.Pair{
			{Compound: "A", RT1: 1, RT2: 5},
			{Compound: "B", RT1: 2, RT2: 4},
			{Compound: "C", RT1: 3, RT2: 3},
		},
	}
}

func TestBuilder_Run(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("results follow job order", func(t *testing.T) {
		jobs := []PairJob{
			fittableJob("a", "b"),
			degenerateJob("a", "c"),
			fittableJob("b", "a"),
		}
		b := NewBuilder(2, 2, calib.Options{}, logger)

		results, stats, err := b.Run(context.Background(), jobs)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("got %d results, want 3", len(results))
		}
		for i, job := range jobs {
			if results[i].Sys1 != job.Sys1 || results[i].Sys2 != job.Sys2 {
				t.Errorf("result %d is %s->%s, want %s->%s",
					i, results[i].Sys1, results[i].Sys2, job.Sys1, job.Sys2)
			}
		}

		if results[0].Status != StatusSuccess || results[2].Status != StatusSuccess {
			t.Error("fittable jobs should succeed")
		}
		if results[1].Status != StatusFailure {
			t.Error("degenerate job should fail")
		}
		if results[1].Message == "" {
			t.Error("failure result should carry a message")
		}
		if results[0].Model == nil || results[0].Model.Fingerprint1 != "f1" {
			t.Error("success result should carry the model with input fingerprints")
		}

		if stats.Built != 2 || stats.Failed != 1 || stats.TotalPairs != 3 {
			t.Errorf("stats = %+v", stats)
		}
		if stats.Batches != 2 {
			t.Errorf("Batches = %d, want 2 for 3 jobs at batch size 2", stats.Batches)
		}
		if stats.RunID == "" {
			t.Error("RunID should be set")
		}
	})

	t.Run("empty job list", func(t *testing.T) {
		b := NewBuilder(20, 4, calib.Options{}, logger)
		results, stats, err := b.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(results) != 0 || stats.Batches != 0 {
			t.Errorf("results = %v, stats = %+v", results, stats)
		}
	})

	t.Run("progress reaches total", func(t *testing.T) {
		jobs := []PairJob{fittableJob("a", "b"), fittableJob("b", "a"), fittableJob("a", "c")}
		b := NewBuilder(2, 1, calib.Options{}, logger)

		var mu sync.Mutex
		var maxDone, lastTotal int
		b.SetProgressReporter(ProgressFunc(func(done, total int, elapsed, eta time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			if done > maxDone {
				maxDone = done
			}
			lastTotal = total
		}))

		if _, _, err := b.Run(context.Background(), jobs); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if maxDone != 3 || lastTotal != 3 {
			t.Errorf("progress reached %d/%d, want 3/3", maxDone, lastTotal)
		}
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		b := NewBuilder(2, 2, calib.Options{}, logger)
		_, _, err := b.Run(ctx, []PairJob{fittableJob("a", "b")})
		if err == nil {
			t.Fatal("expected error from cancelled context")
		}
	})
}

func TestEstimateRemaining(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		done    int
		total   int
		want    time.Duration
	}{
		{"nothing done", time.Second, 0, 10, 0},
		{"halfway", 5 * time.Second, 5, 10, 5 * time.Second},
		{"complete", 10 * time.Second, 10, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateRemaining(tt.elapsed, tt.done, tt.total); got != tt.want {
				t.Errorf("estimateRemaining() = %v, want %v", got, tt.want)
			}
		})
	}
}
