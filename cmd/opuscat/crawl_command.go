package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"opuscat/internal/crawler"
)

func newCrawlCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Acquire raw XML artifacts from every catalogue source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			logger := newLogger().With("run_id", uuid.NewString())
			walker := crawler.NewWalker(cfg.RequestTimeout(), cfg.Delay(), logger)
			ctx := context.Background()

			for _, src := range newSources(cfg) {
				logger.Info("crawling source", "source", src.Name(), "composer", src.Composer())

				records, err := walker.Walk(ctx, src, cfg.SourceDir(src.Composer()))
				if err != nil {
					return fmt.Errorf("crawl %s: %w", src.Name(), err)
				}

				path := cfg.RecordsPath(src.Composer())
				if err := crawler.WriteRecords(path, records); err != nil {
					return fmt.Errorf("persist %s records: %w", src.Name(), err)
				}
				logger.Info("source crawled",
					"source", src.Name(), "records", len(records), "records_file", path)
			}
			return nil
		},
	}
}
