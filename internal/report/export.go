// Package report writes machine-readable artifacts for a completed
// run.
package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"sort"
	"strconv"

	"github.com/paladin223/mit-service/internal/stats"
)

// Export writes <prefix>_summary.json with the full summary and
// <prefix>_ops.csv with the per-operation counter table.
func Export(prefix string, s stats.Summary) error {
	if err := exportJSON(prefix+"_summary.json", s); err != nil {
		return err
	}
	return exportCSV(prefix+"_ops.csv", s)
}

func exportJSON(filename string, s stats.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func exportCSV(filename string, s stats.Summary) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"operation", "success", "not_found", "failed"}); err != nil {
		return err
	}

	ops := make([]string, 0, len(s.PerOp))
	for op := range s.PerOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	for _, op := range ops {
		c := s.PerOp[op]
		record := []string{
			op,
			strconv.FormatUint(c.Success, 10),
			strconv.FormatUint(c.NotFound, 10),
			strconv.FormatUint(c.Failed, 10),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
