package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paladin223/mit-service/internal/mockserver"
)

var mockPort int

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local in-memory implementation of the target service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mockserver.New().Start(mockPort)
	},
}

func init() {
	rootCmd.AddCommand(mockCmd)

	mockCmd.Flags().IntVarP(&mockPort, "port", "p", 8080, "Port to listen on")
}
