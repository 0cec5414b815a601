// Package stats accumulates per-operation outcomes for a load run and
// renders them into live snapshots and a final report.
package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paladin223/mit-service/internal/target"
)

// OpCounts is the per-endpoint success/failure detail.
type OpCounts struct {
	Success  uint64
	Failed   uint64
	NotFound uint64
}

// Run is the mutable accumulator for one load run. Counters are
// atomics so recording never serializes the request pipeline; the raw
// sample slice and the tallies sit behind a mutex and are touched once
// per completed operation.
type Run struct {
	issued   atomic.Uint64
	success  atomic.Uint64
	failed   atomic.Uint64
	notFound atomic.Uint64
	timedOut atomic.Uint64

	// Live percentiles for the 1 Hz progress line.
	Latency *SafeHistogram

	mu      sync.Mutex
	samples []time.Duration
	reasons map[string]uint64
	perOp   map[string]*OpCounts

	start time.Time
	end   time.Time
}

func NewRun() *Run {
	return &Run{
		Latency: NewSafeHistogram(),
		reasons: make(map[string]uint64),
		perOp:   make(map[string]*OpCounts),
		start:   time.Now(),
	}
}

// Record folds one classified outcome into the run. Every completed
// operation is recorded exactly once; issued always equals
// success + failed + notFound.
func (r *Run) Record(op string, o target.Outcome) {
	r.issued.Add(1)
	switch o.Class {
	case target.Success:
		r.success.Add(1)
	case target.NotFound:
		r.notFound.Add(1)
	default:
		r.failed.Add(1)
		if o.Reason == target.ReasonTimeout {
			r.timedOut.Add(1)
		}
	}

	r.Latency.Record(o.Elapsed)

	r.mu.Lock()
	r.samples = append(r.samples, o.Elapsed)
	if o.Class == target.Failure && o.Reason != "" {
		r.reasons[o.Reason]++
	}
	c := r.perOp[op]
	if c == nil {
		c = &OpCounts{}
		r.perOp[op] = c
	}
	switch o.Class {
	case target.Success:
		c.Success++
	case target.NotFound:
		c.NotFound++
	default:
		c.Failed++
	}
	r.mu.Unlock()
}

// Finalize sets the end timestamp. Safe to call more than once; the
// first call wins.
func (r *Run) Finalize() {
	r.mu.Lock()
	if r.end.IsZero() {
		r.end = time.Now()
	}
	r.mu.Unlock()
}

func (r *Run) Issued() uint64   { return r.issued.Load() }
func (r *Run) Success() uint64  { return r.success.Load() }
func (r *Run) Failed() uint64   { return r.failed.Load() }
func (r *Run) NotFound() uint64 { return r.notFound.Load() }
func (r *Run) TimedOut() uint64 { return r.timedOut.Load() }

// Snapshot is a cheap copy for the progress line.
type Snapshot struct {
	Issued   uint64
	Success  uint64
	Failed   uint64
	NotFound uint64

	P50Ms float64
	P99Ms float64
}

func (r *Run) Snapshot() Snapshot {
	return Snapshot{
		Issued:   r.issued.Load(),
		Success:  r.success.Load(),
		Failed:   r.failed.Load(),
		NotFound: r.notFound.Load(),
		P50Ms:    r.Latency.QuantileMs(50),
		P99Ms:    r.Latency.QuantileMs(99),
	}
}

// Summary is the finalized view of a run.
type Summary struct {
	Duration    time.Duration       `json:"duration"`
	Issued      uint64              `json:"issued"`
	Success     uint64              `json:"success"`
	Failed      uint64              `json:"failed"`
	NotFound    uint64              `json:"not_found"`
	TimedOut    uint64              `json:"timed_out"`
	AchievedRPS float64             `json:"achieved_rps"`
	SuccessPct  float64             `json:"success_pct"`
	MeanLatency time.Duration       `json:"mean_latency"`
	P50         time.Duration       `json:"p50"`
	P95         time.Duration       `json:"p95"`
	P99         time.Duration       `json:"p99"`
	MinLatency  time.Duration       `json:"min_latency"`
	MaxLatency  time.Duration       `json:"max_latency"`
	PerOp       map[string]OpCounts `json:"per_op"`
	Reasons     map[string]uint64   `json:"failure_reasons"`
}

// Summarize computes the final report values from the collected
// samples. Percentiles index the sorted samples at floor(n*p); with no
// samples every derived value is zero rather than an error.
func (r *Run) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	end := r.end
	if end.IsZero() {
		end = time.Now()
	}
	dur := end.Sub(r.start)

	s := Summary{
		Duration: dur,
		Issued:   r.issued.Load(),
		Success:  r.success.Load(),
		Failed:   r.failed.Load(),
		NotFound: r.notFound.Load(),
		TimedOut: r.timedOut.Load(),
		PerOp:    make(map[string]OpCounts, len(r.perOp)),
		Reasons:  make(map[string]uint64, len(r.reasons)),
	}
	for op, c := range r.perOp {
		s.PerOp[op] = *c
	}
	for reason, n := range r.reasons {
		s.Reasons[reason] = n
	}

	if dur > 0 {
		s.AchievedRPS = float64(s.Issued) / dur.Seconds()
	}
	if s.Issued > 0 {
		s.SuccessPct = float64(s.Success) / float64(s.Issued) * 100
	}

	if len(r.samples) == 0 {
		return s
	}

	sorted := make([]time.Duration, len(r.samples))
	copy(sorted, r.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	s.MeanLatency = total / time.Duration(len(sorted))
	s.P50 = percentile(sorted, 0.50)
	s.P95 = percentile(sorted, 0.95)
	s.P99 = percentile(sorted, 0.99)
	s.MinLatency = sorted[0]
	s.MaxLatency = sorted[len(sorted)-1]
	return s
}

// percentile indexes sorted samples at floor(n*p), clamped to the last
// sample so p=1.0 stays in range.
func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
