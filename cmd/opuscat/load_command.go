package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"opuscat/internal/catalog"
	"opuscat/internal/crawler"
	"opuscat/internal/normalize"
	"opuscat/pkg/database"
	"opuscat/pkg/models"
)

func newLoadCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Normalize acquired records and consolidate them into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}
			logger := newLogger()

			dbCfg := database.DefaultConfig()
			if cfg.Database != "" {
				dbCfg.Path = cfg.Database
			}
			db, err := database.Open(dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}

			grouped := make(map[string][]models.Work)
			var allStats []normalize.Stats
			for _, src := range newSources(cfg) {
				records, err := crawler.ReadRecords(cfg.RecordsPath(src.Composer()), logger)
				if err != nil {
					if errors.Is(err, os.ErrNotExist) {
						logger.Warn("no records file for source; run crawl first",
							"source", src.Name(), "composer", src.Composer())
						continue
					}
					return fmt.Errorf("read %s records: %w", src.Name(), err)
				}

				works, stats := normalize.Run(records, src.Composer(), logger)
				grouped[src.Composer()] = works
				allStats = append(allStats, stats)
			}

			summary, err := catalog.Consolidate(context.Background(), db, grouped, catalogueSource)
			if err != nil {
				return fmt.Errorf("consolidate: %w", err)
			}

			printLoadSummary(cmd, allStats, summary)
			return nil
		},
	}
}

func printLoadSummary(cmd *cobra.Command, stats []normalize.Stats, summary catalog.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Composer", "Acquired", "Normalized"})
	for _, s := range stats {
		t.AppendRow(table.Row{s.Composer, s.Before, s.After})
	}
	t.AppendFooter(table.Row{"Inserted", summary.Inserted, ""})
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "composers: %d, works inserted: %d, skipped: %d\n",
		summary.Composers, summary.Inserted, summary.Skipped)
}
