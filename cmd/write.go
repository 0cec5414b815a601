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
	writeRPS      int
	writeDuration int
	writeCount    int64
	writeStart    int64
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Generate sustained insert load at a target RPS",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateShared(); err != nil {
			return err
		}
		if writeRPS <= 0 {
			return fmt.Errorf("rps must be positive, got %d", writeRPS)
		}
		if writeDuration < 0 {
			return fmt.Errorf("duration must be >= 0, got %d", writeDuration)
		}
		if writeStart < 1 {
			return fmt.Errorf("start must be >= 1, got %d", writeStart)
		}

		client := target.NewClient(baseURL, requestTimeout(), concurrency)
		info := cli.RunInfo{
			Kind:        "write",
			URL:         baseURL,
			Rate:        writeRPS,
			Count:       writeCount,
			Duration:    time.Duration(writeDuration) * time.Second,
			Concurrency: concurrency,
			StartSeq:    writeStart,
			Timeout:     requestTimeout(),
			OutPrefix:   outPrefix,
		}
		return cli.Execute(info, client, workload.Write(client))
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)

	writeCmd.Flags().IntVarP(&writeRPS, "rps", "r", 100, "Inserts per second")
	writeCmd.Flags().IntVarP(&writeDuration, "duration", "d", 0, "Duration in seconds (0 = until count or interrupt)")
	writeCmd.Flags().Int64Var(&writeCount, "count", 0, "Total inserts (0 = unbounded)")
	writeCmd.Flags().Int64Var(&writeStart, "start", 1, "First record sequence number")
}
