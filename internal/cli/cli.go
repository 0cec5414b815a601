// Package cli runs a configured workload headlessly: banner, header,
// pre-flight check, progress output, final summary, history save and
// optional export.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/paladin223/mit-service/internal/banner"
	"github.com/paladin223/mit-service/internal/history"
	"github.com/paladin223/mit-service/internal/report"
	"github.com/paladin223/mit-service/internal/runner"
	"github.com/paladin223/mit-service/internal/stats"
	"github.com/paladin223/mit-service/internal/target"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// RunInfo describes one invocation for display and history purposes.
type RunInfo struct {
	Kind        string
	URL         string
	Rate        int
	Count       int64
	Duration    time.Duration
	Concurrency int
	StartSeq    int64
	Timeout     time.Duration
	BatchSize   int
	OutPrefix   string
}

// Execute drives a full run. The returned error is non-nil only for
// pre-flight failures; operation failures degrade the success rate,
// never the exit status. An interrupt cancels pacing, drains in-flight
// requests and still prints the summary.
func Execute(info RunInfo, client *target.Client, work runner.WorkFunc) error {
	fmt.Print(banner.GetString())
	printHeader(info)

	preflightCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Health(preflightCtx); err != nil {
		return fmt.Errorf("target %s is not reachable, refusing to start: %w", info.URL, err)
	}
	log.Info().Str("target", info.URL).Msg("health check passed")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := stats.NewRun()
	r := runner.New(runner.Config{
		Rate:        info.Rate,
		Count:       info.Count,
		Duration:    info.Duration,
		Concurrency: info.Concurrency,
		StartSeq:    info.StartSeq,
	}, run, work)

	start := time.Now()
	done := make(chan struct{})

	if info.BatchSize > 0 {
		r.OnBatch = batchProgress(info, run, start)
		go func() {
			r.RunBatches(ctx, info.BatchSize)
			close(done)
		}()
		<-done
	} else {
		go func() {
			r.Run(ctx)
			close(done)
		}()
		tickProgress(done, r, run, start)
	}

	if ctx.Err() != nil {
		fmt.Println()
		log.Warn().Msg("run interrupted, in-flight requests drained")
	}

	summary := run.Summarize()
	printSummary(info, summary)
	saveHistory(info, summary)

	if info.OutPrefix != "" {
		if err := report.Export(info.OutPrefix, summary); err != nil {
			log.Warn().Err(err).Msg("report export failed")
		} else {
			fmt.Printf("\nReports saved to %s_summary.json and %s_ops.csv\n", info.OutPrefix, info.OutPrefix)
		}
	}
	return nil
}

// tickProgress rewrites a single progress line roughly once a second
// until the runner finishes. It only reads atomic snapshots, so it
// never blocks the request pipeline.
func tickProgress(done <-chan struct{}, r *runner.Runner, run *stats.Run, start time.Time) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			fmt.Println()
			return
		case <-ticker.C:
			s := run.Snapshot()
			elapsed := time.Since(start)
			rps := 0.0
			if elapsed.Seconds() > 0 {
				rps = float64(s.Issued) / elapsed.Seconds()
			}
			fmt.Printf("\r%s | RPS: %6.1f | Inf: %3d | OK: %d | 404: %d | Err: %d | P50: %.1fms P99: %.1fms   ",
				elapsed.Round(time.Second), rps, r.Inflight(),
				s.Success, s.NotFound, s.Failed, s.P50Ms, s.P99Ms)
		}
	}
}

// batchProgress prints a populate-style line every 10 batches and on
// the final one.
func batchProgress(info RunInfo, run *stats.Run, start time.Time) func(int, int64, time.Duration) {
	return func(batch int, issued int64, took time.Duration) {
		if batch%10 != 0 && issued < info.Count {
			return
		}
		elapsed := time.Since(start)
		inserted := run.Success()
		rate := 0.0
		if elapsed.Seconds() > 0 {
			rate = float64(inserted) / elapsed.Seconds()
		}
		eta := 0.0
		if rate > 0 {
			eta = float64(info.Count-int64(inserted)) / rate
		}
		fmt.Printf("Batch %4d: %6.1f%% | Inserted: %7d | Rate: %6.1f/s | ETA: %4.0fs | Batch time: %.2fs\n",
			batch, float64(issued)/float64(info.Count)*100, inserted, rate, eta, took.Seconds())
	}
}

func printHeader(info RunInfo) {
	fmt.Printf("Starting %s run\n", info.Kind)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Target URL  : %s\n", info.URL)
	if info.Rate > 0 {
		fmt.Printf("Rate        : %d/s\n", info.Rate)
	}
	if info.Count > 0 {
		fmt.Printf("Count       : %d\n", info.Count)
	}
	if info.Duration > 0 {
		fmt.Printf("Duration    : %s\n", info.Duration)
	}
	if info.BatchSize > 0 {
		fmt.Printf("Batch size  : %d\n", info.BatchSize)
	}
	fmt.Printf("Concurrency : %d\n", info.Concurrency)
	fmt.Printf("Start seq   : %d\n", info.StartSeq)
	fmt.Printf("Timeout     : %s\n", info.Timeout)
	fmt.Println(strings.Repeat("=", 70))
}

func printSummary(info RunInfo, s stats.Summary) {
	fmt.Printf("\nRUN RESULTS (%s)\n", info.Kind)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Duration       : %s\n", s.Duration.Round(10*time.Millisecond))
	fmt.Printf("Requests       : %d\n", s.Issued)
	fmt.Printf("Success        : %d (%.2f%%)\n", s.Success, s.SuccessPct)
	fmt.Printf("Not Found      : %d\n", s.NotFound)
	fmt.Printf("Failed         : %d (timeouts: %d)\n", s.Failed, s.TimedOut)
	fmt.Printf("Achieved RPS   : %.2f\n", s.AchievedRPS)
	fmt.Printf("\nLATENCY\n")
	fmt.Printf("   Mean: %s\n", s.MeanLatency.Round(time.Microsecond))
	fmt.Printf("   P50 : %s\n", s.P50.Round(time.Microsecond))
	fmt.Printf("   P95 : %s\n", s.P95.Round(time.Microsecond))
	fmt.Printf("   P99 : %s\n", s.P99.Round(time.Microsecond))
	fmt.Printf("   Min : %s\n", s.MinLatency.Round(time.Microsecond))
	fmt.Printf("   Max : %s\n", s.MaxLatency.Round(time.Microsecond))

	if len(s.PerOp) > 0 {
		fmt.Printf("\nPER OPERATION\n")
		ops := make([]string, 0, len(s.PerOp))
		for op := range s.PerOp {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		for _, op := range ops {
			c := s.PerOp[op]
			fmt.Printf("   %-7s ok: %-7d 404: %-7d err: %d\n", op, c.Success, c.NotFound, c.Failed)
		}
	}

	if len(s.Reasons) > 0 {
		fmt.Printf("\nFAILURE REASONS\n")
		for reason, n := range s.Reasons {
			fmt.Printf("   %d x %s\n", n, reason)
		}
	}
	fmt.Println(strings.Repeat("=", 70))
}

func saveHistory(info RunInfo, s stats.Summary) {
	store, err := history.Open(history.DefaultPath())
	if err != nil {
		log.Warn().Err(err).Msg("history store unavailable")
		return
	}
	defer store.Close()

	if err := store.Save(history.NewEntry(info.Kind, info.URL, s)); err != nil {
		log.Warn().Err(err).Msg("history save failed")
	}
}
