package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paladin223/mit-service/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List summaries of past runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(history.DefaultPath())
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer store.Close()

		entries, err := store.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		fmt.Printf("%-20s %-9s %-28s %9s %9s %7s %9s %9s\n",
			"WHEN", "KIND", "TARGET", "REQUESTS", "SUCCESS", "404", "FAILED", "RPS")
		for _, e := range entries {
			s := e.Summary
			fmt.Printf("%-20s %-9s %-28s %9d %9d %7d %9d %9.1f\n",
				e.Timestamp.Format(time.DateTime), e.Kind, e.Target,
				s.Issued, s.Success, s.NotFound, s.Failed, s.AchievedRPS)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
