package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladin223/mit-service/internal/stats"
	"github.com/paladin223/mit-service/internal/target"
)

func instantWork(started *atomic.Int64) WorkFunc {
	return func(ctx context.Context, seq int64) []Result {
		if started != nil {
			started.Add(1)
		}
		return []Result{{
			Op:      "get",
			Outcome: target.Outcome{Class: target.Success, Elapsed: time.Millisecond},
		}}
	}
}

func TestRunIssuesExactCount(t *testing.T) {
	run := stats.NewRun()
	var started atomic.Int64
	r := New(Config{Rate: 50, Count: 123, Concurrency: 10}, run, instantWork(&started))

	r.Run(context.Background())

	assert.Equal(t, int64(123), started.Load())
	assert.Equal(t, uint64(123), run.Issued())
	assert.Equal(t, run.Issued(), run.Success()+run.Failed()+run.NotFound())
}

func TestRunHonorsConcurrencyBound(t *testing.T) {
	const bound = 4

	var cur, max atomic.Int64
	work := func(ctx context.Context, seq int64) []Result {
		n := cur.Add(1)
		for {
			m := max.Load()
			if n <= m || max.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		cur.Add(-1)
		return []Result{{Op: "get", Outcome: target.Outcome{Class: target.Success, Elapsed: time.Millisecond}}}
	}

	run := stats.NewRun()
	r := New(Config{Rate: 60, Count: 60, Concurrency: bound}, run, work)
	r.Run(context.Background())

	assert.Equal(t, uint64(60), run.Issued())
	assert.LessOrEqual(t, max.Load(), int64(bound))
}

func TestRunStopsOnDuration(t *testing.T) {
	run := stats.NewRun()
	var started atomic.Int64
	r := New(Config{Rate: 5, Duration: 100 * time.Millisecond, Concurrency: 5}, run, instantWork(&started))

	begin := time.Now()
	r.Run(context.Background())
	elapsed := time.Since(begin)

	// One window fits in 100ms; the residual sleep rounds the run up
	// to about a second.
	assert.Equal(t, int64(5), started.Load())
	assert.Less(t, elapsed, 3*time.Second)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	run := stats.NewRun()
	var started atomic.Int64
	work := func(c context.Context, seq int64) []Result {
		started.Add(1)
		return []Result{{Op: "get", Outcome: target.Outcome{Class: target.Success, Elapsed: time.Millisecond}}}
	}
	r := New(Config{Rate: 3, Count: 1000, Concurrency: 3}, run, work)

	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()
	r.Run(ctx)

	after := started.Load()
	// Only the first window ran before the cancel landed mid-sleep,
	// and nothing starts afterwards.
	assert.Equal(t, int64(3), after)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, started.Load())
	assert.Equal(t, uint64(after), run.Issued())
}

func TestRunRecordsInflightOutcomesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	work := func(c context.Context, seq int64) []Result {
		<-release
		return []Result{{Op: "insert", Outcome: target.Outcome{Class: target.Success, Elapsed: time.Millisecond}}}
	}

	run := stats.NewRun()
	r := New(Config{Rate: 2, Count: 2, Concurrency: 2}, run, work)

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	close(release)
	<-done

	// The two in-flight units drained and were still counted.
	assert.Equal(t, uint64(2), run.Issued())
}

func TestRunBatches(t *testing.T) {
	run := stats.NewRun()

	var seqs []int64
	seqCh := make(chan int64, 256)
	work := func(ctx context.Context, seq int64) []Result {
		seqCh <- seq
		return []Result{{Op: "insert", Outcome: target.Outcome{Class: target.Success, Elapsed: time.Millisecond}}}
	}

	var batches int
	var lastIssued int64
	r := New(Config{Count: 25, Concurrency: 8, StartSeq: 100}, run, work)
	r.OnBatch = func(batch int, issued int64, took time.Duration) {
		batches = batch
		lastIssued = issued
		require.GreaterOrEqual(t, took, time.Duration(0))
	}

	r.RunBatches(context.Background(), 10)
	close(seqCh)
	for s := range seqCh {
		seqs = append(seqs, s)
	}

	assert.Equal(t, 3, batches) // 10 + 10 + 5
	assert.Equal(t, int64(25), lastIssued)
	assert.Equal(t, uint64(25), run.Issued())

	seen := make(map[int64]bool)
	for _, s := range seqs {
		assert.False(t, seen[s], "seq %d issued twice", s)
		seen[s] = true
		assert.GreaterOrEqual(t, s, int64(100))
		assert.Less(t, s, int64(125))
	}
	assert.Len(t, seen, 25)
}

func TestRunBatchesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := stats.NewRun()
	var started atomic.Int64
	r := New(Config{Count: 100, Concurrency: 4}, run, instantWork(&started))
	r.RunBatches(ctx, 10)

	assert.Zero(t, started.Load())
}
