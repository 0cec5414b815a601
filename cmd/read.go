package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paladin223/mit-service/internal/cli"
	"github.com/paladin223/mit-service/internal/target"
	"github.com/paladin223/mit-service/internal/workload"
)

var (
	readRPS      int
	readDuration int
	readCount    int64
	readStartID  int64
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Generate sustained read load at a target RPS",
	Long: `Read walks record IDs upward from --start-id at the target rate.
Records that were never written come back as 404 and are counted as
not-found, separately from failures.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateShared(); err != nil {
			return err
		}
		if readRPS <= 0 {
			return fmt.Errorf("rps must be positive, got %d", readRPS)
		}
		if readDuration < 0 {
			return fmt.Errorf("duration must be >= 0, got %d", readDuration)
		}
		if readStartID < 1 {
			return fmt.Errorf("start-id must be >= 1, got %d", readStartID)
		}

		client := target.NewClient(baseURL, requestTimeout(), concurrency)
		info := cli.RunInfo{
			Kind:        "read",
			URL:         baseURL,
			Rate:        readRPS,
			Count:       readCount,
			Duration:    time.Duration(readDuration) * time.Second,
			Concurrency: concurrency,
			StartSeq:    readStartID,
			Timeout:     requestTimeout(),
			OutPrefix:   outPrefix,
		}
		return cli.Execute(info, client, workload.Read(client))
	},
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().IntVarP(&readRPS, "rps", "r", 200, "Reads per second")
	readCmd.Flags().IntVarP(&readDuration, "duration", "d", 0, "Duration in seconds (0 = until count or interrupt)")
	readCmd.Flags().Int64Var(&readCount, "count", 0, "Total reads (0 = unbounded)")
	readCmd.Flags().Int64Var(&readStartID, "start-id", 1, "First record sequence number to read")
}
