// Package runner is the rate-controlled request driver behind every
// mitload workload: it fans work units out at a target per-second rate
// (or in fixed-size batches), bounds in-flight concurrency with a
// permit channel, and records every classified outcome exactly once.
package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/paladin223/mit-service/internal/stats"
	"github.com/paladin223/mit-service/internal/target"
)

// Result pairs an endpoint label with its classified outcome.
type Result struct {
	Op      string
	Outcome target.Outcome
}

// WorkFunc executes one work unit for the given sequence number and
// returns the outcome of every request it made. A work unit is usually
// one request, but the mixed workload issues an insert/update/get
// chain per unit.
type WorkFunc func(ctx context.Context, seq int64) []Result

type Config struct {
	// Rate is the number of work units started per one-second window.
	Rate int
	// Count stops the run after this many work units; 0 means
	// unbounded.
	Count int64
	// Duration stops the run after this much wall-clock time; 0 means
	// unbounded. Whichever of Count/Duration/cancellation comes first
	// wins.
	Duration time.Duration
	// Concurrency caps simultaneously in-flight work units.
	Concurrency int
	// StartSeq is the sequence number of the first work unit.
	StartSeq int64
}

type Runner struct {
	cfg   Config
	work  WorkFunc
	Stats *stats.Run

	// OnBatch, if set, is called after each batch in RunBatches.
	OnBatch func(batch int, issued int64, took time.Duration)

	inflight atomic.Int64
	permits  chan struct{}
}

func New(cfg Config, run *stats.Run, work WorkFunc) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Runner{
		cfg:     cfg,
		work:    work,
		Stats:   run,
		permits: make(chan struct{}, cfg.Concurrency),
	}
}

func (r *Runner) Inflight() int64 {
	return r.inflight.Load()
}

// Run paces work in one-second windows: each window starts up to Rate
// units in sequence order, then sleeps whatever remains of the second.
// A window that overruns gets no sleep, so under overload the rate
// degrades instead of queueing unboundedly. In-flight units always
// drain before Run returns, and their outcomes are still recorded
// after cancellation.
func (r *Runner) Run(ctx context.Context) {
	start := time.Now()
	seq := r.cfg.StartSeq
	var started int64
	var wg sync.WaitGroup

	defer func() {
		wg.Wait()
		r.Stats.Finalize()
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		if r.cfg.Count > 0 && started >= r.cfg.Count {
			return
		}
		if r.cfg.Duration > 0 && time.Since(start) >= r.cfg.Duration {
			return
		}

		windowStart := time.Now()
		n := int64(r.cfg.Rate)
		if r.cfg.Count > 0 && r.cfg.Count-started < n {
			n = r.cfg.Count - started
		}

		for i := int64(0); i < n; i++ {
			// The permit is the hard concurrency cap: acquired before
			// a unit starts, released when it completes either way.
			select {
			case r.permits <- struct{}{}:
			case <-ctx.Done():
				return
			}

			wg.Add(1)
			started++
			s := seq
			seq++
			go func() {
				defer wg.Done()
				defer func() { <-r.permits }()
				r.inflight.Add(1)
				defer r.inflight.Add(-1)
				for _, res := range r.work(ctx, s) {
					r.Stats.Record(res.Op, res.Outcome)
				}
			}()
		}

		if r.cfg.Count > 0 && started >= r.cfg.Count {
			return
		}

		residual := time.Second - time.Since(windowStart)
		if residual > 0 {
			select {
			case <-time.After(residual):
			case <-ctx.Done():
				return
			}
		}
	}
}

// RunBatches processes Count work units in fixed-size batches: each
// batch fans out up to batchSize units bounded by Concurrency, waits
// for all of them, then moves on. There is no time pacing; throughput
// is whatever the target sustains at the concurrency bound.
func (r *Runner) RunBatches(ctx context.Context, batchSize int) {
	defer r.Stats.Finalize()

	if batchSize <= 0 {
		batchSize = 1
	}

	var issued int64
	batch := 0
	for issued < r.cfg.Count {
		if ctx.Err() != nil {
			return
		}
		batch++

		n := int64(batchSize)
		if r.cfg.Count-issued < n {
			n = r.cfg.Count - issued
		}

		batchStart := time.Now()
		g := new(errgroup.Group)
		g.SetLimit(r.cfg.Concurrency)
		for i := int64(0); i < n; i++ {
			seq := r.cfg.StartSeq + issued + i
			g.Go(func() error {
				r.inflight.Add(1)
				defer r.inflight.Add(-1)
				for _, res := range r.work(ctx, seq) {
					r.Stats.Record(res.Op, res.Outcome)
				}
				return nil
			})
		}
		g.Wait()
		issued += n

		if r.OnBatch != nil {
			r.OnBatch(batch, issued, time.Since(batchStart))
		}
	}
}
