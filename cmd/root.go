package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paladin223/mit-service/internal/banner"
)

var (
	cfgFile string

	// Shared flags
	baseURL     string
	timeoutSec  int
	concurrency int
	outPrefix   string
)

var rootCmd = &cobra.Command{
	Use:   "mitload",
	Short: "mitload - load generation suite for the MIT key-value service",
	Long: `
mitload drives load against a key-value HTTP service exposing
/insert, /update, /get and /health.

Subcommands:
  load      combined insert/update/get workload per task
  populate  bulk-insert records in concurrent batches
  write     sustained insert load at a target RPS
  read      sustained read load at a target RPS
  mock      run a local in-memory implementation of the service
  history   list summaries of past runs`,
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Print(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mitload.yaml)")
	rootCmd.PersistentFlags().StringVarP(&baseURL, "url", "u", "http://localhost:8080", "Base URL of the target service")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", 10, "Per-request timeout in seconds")
	rootCmd.PersistentFlags().IntVarP(&concurrency, "concurrency", "c", 100, "Maximum in-flight operations")
	rootCmd.PersistentFlags().StringVarP(&outPrefix, "out", "o", "", "Output filename prefix for report export")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".mitload")
		}
	}
	viper.SetEnvPrefix("MITLOAD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if !rootCmd.PersistentFlags().Changed("url") && viper.IsSet("url") {
			baseURL = viper.GetString("url")
		}
		if !rootCmd.PersistentFlags().Changed("timeout") && viper.IsSet("timeout") {
			timeoutSec = viper.GetInt("timeout")
		}
		if !rootCmd.PersistentFlags().Changed("concurrency") && viper.IsSet("concurrency") {
			concurrency = viper.GetInt("concurrency")
		}
	}
}

// validateShared rejects non-positive shared parameters before a run
// starts.
func validateShared() error {
	if timeoutSec <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", timeoutSec)
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	return nil
}

func requestTimeout() time.Duration {
	return time.Duration(timeoutSec) * time.Second
}
