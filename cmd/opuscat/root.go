package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"opuscat/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "opuscat",
		Short:         "Musical-works catalogue pipeline and query API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newCrawlCommand(&configFlag))
	rootCmd.AddCommand(newLoadCommand(&configFlag))
	rootCmd.AddCommand(newServeCommand(&configFlag))

	return rootCmd
}

func loadConfig(configFlag *string) (*config.Config, error) {
	path := *configFlag
	if path == "" {
		path = os.Getenv("OPUSCAT_CONFIG")
	}
	return config.Load(path)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
