package main

import (
	"opuscat/internal/config"
	"opuscat/internal/crawler"
)

// catalogueSource is the provenance label recorded for every composer.
const catalogueSource = "Official Catalogue"

func newSources(cfg *config.Config) []crawler.Source {
	nielsen := crawler.NewNielsenSource()
	if cfg.Crawl.NielsenPages > 0 {
		nielsen.MaxPages = cfg.Crawl.NielsenPages
	}

	delius := crawler.NewDeliusSource()
	if cfg.Crawl.DeliusPages > 0 {
		delius.MaxPages = cfg.Crawl.DeliusPages
	}

	return []crawler.Source{nielsen, delius}
}
