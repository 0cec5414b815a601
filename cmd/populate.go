package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paladin223/mit-service/internal/cli"
	"github.com/paladin223/mit-service/internal/target"
	"github.com/paladin223/mit-service/internal/workload"
)

var (
	populateRecords int64
	populateBatch   int
	populateStart   int64
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Bulk-insert records in concurrent batches",
	Long: `Populate inserts records in fixed-size concurrent batches with no
time pacing; throughput is bounded by batch size and the concurrency
cap. Record IDs start at --start so repeated runs can extend the same
keyspace.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateShared(); err != nil {
			return err
		}
		if populateRecords <= 0 {
			return fmt.Errorf("records must be positive, got %d", populateRecords)
		}
		if populateBatch <= 0 {
			return fmt.Errorf("batch must be positive, got %d", populateBatch)
		}
		if populateStart < 0 {
			return fmt.Errorf("start must be >= 0, got %d", populateStart)
		}

		client := target.NewClient(baseURL, requestTimeout(), concurrency)
		info := cli.RunInfo{
			Kind:        "populate",
			URL:         baseURL,
			Count:       populateRecords,
			Concurrency: concurrency,
			StartSeq:    populateStart,
			Timeout:     requestTimeout(),
			BatchSize:   populateBatch,
			OutPrefix:   outPrefix,
		}
		return cli.Execute(info, client, workload.Populate(client, int64(populateBatch)))
	},
}

func init() {
	rootCmd.AddCommand(populateCmd)

	populateCmd.Flags().Int64Var(&populateRecords, "records", 100000, "Number of records to insert")
	populateCmd.Flags().IntVarP(&populateBatch, "batch", "b", 100, "Batch size")
	populateCmd.Flags().Int64Var(&populateStart, "start", 1, "First record sequence number")
}
