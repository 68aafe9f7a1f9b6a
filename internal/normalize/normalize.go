// Package normalize turns raw acquisition records into attributed catalogue
// works: it runs the MEI extractor over each fetched artifact, attaches the
// composer and decade bucket, and drops whatever the extractor rejects.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"

	"opuscat/internal/mei"
	"opuscat/pkg/models"
)

// Stats is the per-composer before/after record count of one normalization
// pass, kept for observability only.
type Stats struct {
	Composer string
	Before   int
	After    int
}

// DecadeLabel buckets a creation year into its ten-year label:
// 1865 -> "1860s", 1800 -> "1800s", 1999 -> "1990s".
func DecadeLabel(year int) string {
	return fmt.Sprintf("%d0s", year/10)
}

// Run normalizes the records acquired for one composer. Records without a
// usable artifact path and artifacts the extractor rejects are dropped;
// neither stops the pass.
func Run(records []models.AcquisitionRecord, composer string, logger *slog.Logger) ([]models.Work, Stats) {
	stats := Stats{Composer: composer, Before: len(records)}

	works := make([]models.Work, 0, len(records))
	for _, rec := range records {
		if rec.ArtifactPath == "" {
			continue
		}
		res, err := mei.Extract(rec.ArtifactPath)
		if err != nil {
			logger.Debug("artifact rejected",
				"composer", composer, "artifact", rec.ArtifactPath, "reason", err)
			continue
		}
		works = append(works, models.Work{
			Title:        res.Title,
			Genre:        strings.Join(res.Genres, ","),
			CreationYear: res.Year,
			DetailURL:    rec.DetailURL,
			Composer:     composer,
			Decade:       DecadeLabel(res.Year),
		})
	}
	stats.After = len(works)

	logger.Info("normalized records",
		"composer", composer, "before", stats.Before, "after", stats.After)
	return works, stats
}
