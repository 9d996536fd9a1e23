package main

import (
	"github.com/spf13/cobra"

	"github.com/run-bigpig/ava/internal/config"
	"github.com/run-bigpig/ava/internal/logger"
)

var log = logger.New("ava")

var (
	cfg      *config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "ava",
	Short:         "Equity investment advisor backed by cooperating LLM agents",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Init(logger.ParseLevel(cfg.App.LogLevel), cfg.App.Env)
		if logLevel != "" {
			logger.SetGlobalLevel(logger.ParseLevel(logLevel))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override AVA_LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd)
}
