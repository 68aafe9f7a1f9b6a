// Package catalog owns the relational side of the works catalogue: the
// consolidation step that loads normalized records into SQLite, and the
// read-only repository + HTTP handlers the query service is built from.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"opuscat/pkg/models"
)

// Summary reports what one consolidation run did to the store.
type Summary struct {
	Composers int
	Inserted  int
	Skipped   int
}

// Consolidate upserts a composer identity per distinct name and inserts the
// works attributed to it, all inside one transaction. Composer lookup is by
// exact name, so re-running against the same store reuses existing
// identities; work inserts are append-only and never deduplicated.
//
// Works missing a required field are counted as skipped and never written.
// Any store error is fatal to the run.
func Consolidate(ctx context.Context, db *sql.DB, grouped map[string][]models.Work, catalogueSource string) (Summary, error) {
	var sum Summary

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return sum, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO works (composer_id, title, genre, creation_year, detail_url, decade)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return sum, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	// deterministic composer order across runs
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "" {
			sum.Skipped += len(grouped[name])
			continue
		}
		composerID, err := ensureComposer(ctx, tx, name, catalogueSource)
		if err != nil {
			return sum, err
		}
		sum.Composers++

		for _, w := range grouped[name] {
			w.ComposerID = composerID
			if !insertable(w) {
				sum.Skipped++
				continue
			}
			if _, err := stmt.ExecContext(ctx,
				w.ComposerID, w.Title, w.Genre, w.CreationYear, w.DetailURL, w.Decade,
			); err != nil {
				return sum, fmt.Errorf("insert work %q: %w", w.Title, err)
			}
			sum.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return sum, fmt.Errorf("commit tx: %w", err)
	}
	return sum, nil
}

// ensureComposer resolves an existing identity by exact name or creates one.
// Running inside the consolidation transaction keeps the lookup-or-create
// atomic; the UNIQUE constraint on name backs it across runs.
func ensureComposer(ctx context.Context, tx *sql.Tx, name, catalogueSource string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT composer_id FROM composers WHERE name = ?`, name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup composer %q: %w", name, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO composers (name, catalogue_source) VALUES (?, ?)`,
		name, catalogueSource,
	)
	if err != nil {
		return 0, fmt.Errorf("insert composer %q: %w", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("composer id for %q: %w", name, err)
	}
	return id, nil
}

func insertable(w models.Work) bool {
	return w.ComposerID != 0 &&
		w.Title != "" &&
		w.Genre != "" &&
		w.CreationYear != 0 &&
		w.DetailURL != "" &&
		w.Decade != ""
}
