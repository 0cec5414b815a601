package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paladin223/mit-service/internal/cli"
	"github.com/paladin223/mit-service/internal/target"
	"github.com/paladin223/mit-service/internal/workload"
)

var (
	loadRPS   int
	loadTasks int64
	loadStart int64
)

// Each task is three requests (insert, update, get), so the task rate
// is the requested RPS divided by three, as in the original tooling.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run the combined insert/update/get workload",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateShared(); err != nil {
			return err
		}
		if loadRPS <= 0 {
			return fmt.Errorf("rps must be positive, got %d", loadRPS)
		}
		if loadTasks <= 0 {
			return fmt.Errorf("tasks must be positive, got %d", loadTasks)
		}
		if loadStart < 0 {
			return fmt.Errorf("start must be >= 0, got %d", loadStart)
		}

		taskRate := loadRPS / 3
		if taskRate < 1 {
			taskRate = 1
		}

		client := target.NewClient(baseURL, requestTimeout(), concurrency)
		info := cli.RunInfo{
			Kind:        "load",
			URL:         baseURL,
			Rate:        taskRate,
			Count:       loadTasks,
			Concurrency: concurrency,
			StartSeq:    loadStart,
			Timeout:     requestTimeout(),
			OutPrefix:   outPrefix,
		}
		return cli.Execute(info, client, workload.Mixed(client))
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().IntVarP(&loadRPS, "rps", "r", 10, "Target requests per second across all three operations")
	loadCmd.Flags().Int64VarP(&loadTasks, "tasks", "t", 100, "Number of tasks to run")
	loadCmd.Flags().Int64Var(&loadStart, "start", 0, "First task sequence number")
}
