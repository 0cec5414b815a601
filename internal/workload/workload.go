// Package workload derives the deterministic record identifiers and
// synthetic payloads shared by every mitload mode, and builds the work
// functions the driver executes.
//
// Identifiers are the MD5 of a fixed salt plus the decimal sequence
// number, so records written by populate or write are retrievable by
// read and load runs using the same sequence range.
package workload

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/paladin223/mit-service/internal/runner"
	"github.com/paladin223/mit-service/internal/target"
)

const idSalt = "abcdefg"

// Operation labels used in per-op statistics.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpGet    = "get"
)

// ID returns the lowercase hex MD5 of "abcdefg" + decimal(seq).
func ID(seq int64) string {
	sum := md5.Sum([]byte(idSalt + strconv.FormatInt(seq, 10)))
	return hex.EncodeToString(sum[:])
}

// TaskValue is the record shape written by the mixed load workload.
// Deterministic apart from the informational timestamp fields.
func TaskValue(requestNumber int64) map[string]any {
	return map[string]any{
		"name":           fmt.Sprintf("Test Record %d", requestNumber),
		"description":    fmt.Sprintf("Generated for request #%d", requestNumber),
		"timestamp":      float64(time.Now().UnixNano()) / float64(time.Second),
		"request_number": requestNumber,
		"metadata": map[string]any{
			"test":       true,
			"batch":      "load_test",
			"created_at": time.Now().Format("2006-01-02 15:04:05"),
		},
	}
}

// UserValue is the record shape written by populate and write runs.
func UserValue(n int64, batchSize int64) map[string]any {
	if batchSize <= 0 {
		batchSize = 1
	}
	return map[string]any{
		"name":          fmt.Sprintf("Test User %d", n),
		"email":         fmt.Sprintf("user%d@example.com", n),
		"age":           20 + n%60,
		"city":          fmt.Sprintf("City %d", n%100),
		"created_at":    time.Now().Format("2006-01-02 15:04:05"),
		"record_number": n,
		"department":    fmt.Sprintf("Dept %d", n%10),
		"salary":        30000 + n%70000,
		"metadata": map[string]any{
			"populated": true,
			"batch":     n / batchSize,
			"test_data": true,
		},
	}
}

// Mixed returns the insert -> update -> get chain for one task. The
// three requests run sequentially and each contributes its own
// outcome; the update marks the record so a later read can tell the
// two writes apart.
func Mixed(c *target.Client) runner.WorkFunc {
	return func(ctx context.Context, task int64) []runner.Result {
		id := ID(task)
		reqNum := task * 2

		results := make([]runner.Result, 0, 3)

		results = append(results, runner.Result{
			Op:      OpInsert,
			Outcome: c.Insert(ctx, id, TaskValue(reqNum+1)),
		})

		updated := TaskValue(reqNum + 2)
		updated["updated"] = true
		results = append(results, runner.Result{
			Op:      OpUpdate,
			Outcome: c.Update(ctx, id, updated),
		})

		results = append(results, runner.Result{
			Op:      OpGet,
			Outcome: c.Get(ctx, id),
		})

		return results
	}
}

// Populate returns the single-insert work unit used by batch
// population.
func Populate(c *target.Client, batchSize int64) runner.WorkFunc {
	return func(ctx context.Context, seq int64) []runner.Result {
		return []runner.Result{{
			Op:      OpInsert,
			Outcome: c.Insert(ctx, ID(seq), UserValue(seq, batchSize)),
		}}
	}
}

// Write returns the sustained-insert work unit.
func Write(c *target.Client) runner.WorkFunc {
	return func(ctx context.Context, seq int64) []runner.Result {
		return []runner.Result{{
			Op:      OpInsert,
			Outcome: c.Insert(ctx, ID(seq), UserValue(seq, 1)),
		}}
	}
}

// Read returns the sustained-get work unit. Missing records surface as
// NotFound, not failures.
func Read(c *target.Client) runner.WorkFunc {
	return func(ctx context.Context, seq int64) []runner.Result {
		return []runner.Result{{
			Op:      OpGet,
			Outcome: c.Get(ctx, ID(seq)),
		}}
	}
}
