package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"opuscat/pkg/models"
)

var ErrComposerNotFound = errors.New("composer not found")

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Filter narrows the work listing. Keyword is a case-insensitive substring
// match against title or composer name; Genre is a substring match against
// the delimited genre field; Decade is exact. "all" (or empty) disables the
// genre and decade filters. Filters compose with AND.
type Filter struct {
	Keyword string
	Genre   string
	Decade  string
}

func (r *Repo) ListWorks(ctx context.Context, f Filter) ([]models.Work, error) {
	query := `
		SELECT w.work_id, w.composer_id, w.title, w.genre, w.creation_year, w.detail_url, w.decade, c.name
		FROM works w
		JOIN composers c ON w.composer_id = c.composer_id
	`

	var where []string
	var args []any

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		where = append(where, "(LOWER(w.title) LIKE ? OR LOWER(c.name) LIKE ?)")
		pat := "%" + strings.ToLower(kw) + "%"
		args = append(args, pat, pat)
	}
	if g := strings.TrimSpace(f.Genre); g != "" && g != "all" {
		where = append(where, "LOWER(w.genre) LIKE ?")
		args = append(args, "%"+strings.ToLower(g)+"%")
	}
	if d := strings.TrimSpace(f.Decade); d != "" && d != "all" {
		where = append(where, "w.decade = ?")
		args = append(args, d)
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY w.work_id ASC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	defer rows.Close()

	var out []models.Work
	for rows.Next() {
		var w models.Work
		if err := rows.Scan(
			&w.WorkID, &w.ComposerID, &w.Title, &w.Genre, &w.CreationYear, &w.DetailURL, &w.Decade, &w.Composer,
		); err != nil {
			return nil, fmt.Errorf("scan work: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Genres returns the distinct genre labels across all works, derived by
// splitting each work's delimited genre field, sorted lexicographically.
func (r *Repo) Genres(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT genre FROM works`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var genre string
		if err := rows.Scan(&genre); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		for _, term := range strings.Split(genre, ",") {
			if term != "" {
				seen[term] = struct{}{}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out, nil
}

// Decades returns the distinct decade labels across all works, sorted.
func (r *Repo) Decades(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT decade FROM works ORDER BY decade ASC`)
	if err != nil {
		return nil, fmt.Errorf("query decades: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan decade: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Composers(ctx context.Context) ([]models.Composer, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT composer_id, name, catalogue_source FROM composers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query composers: %w", err)
	}
	defer rows.Close()

	var out []models.Composer
	for rows.Next() {
		var c models.Composer
		if err := rows.Scan(&c.ComposerID, &c.Name, &c.CatalogueSource); err != nil {
			return nil, fmt.Errorf("scan composer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// RepresentativeWork is one of a composer's earliest works, as shown in the
// composer summary.
type RepresentativeWork struct {
	Title      string `json:"title"`
	CreateYear int    `json:"create_year"`
}

// ComposerDetail is the aggregate summary for one composer: up to five
// earliest-by-year works plus work counts grouped by genre and by decade.
type ComposerDetail struct {
	ID               int64                `json:"id"`
	Name             string               `json:"name"`
	RepresentWorks   []RepresentativeWork `json:"represent_works"`
	GenreStat        map[string]int       `json:"genre_stat"`
	YearDistribution map[string]int       `json:"year_distribution"`
}

func (r *Repo) ComposerDetail(ctx context.Context, composerID int64) (*ComposerDetail, error) {
	detail := &ComposerDetail{
		ID:               composerID,
		RepresentWorks:   []RepresentativeWork{},
		GenreStat:        make(map[string]int),
		YearDistribution: make(map[string]int),
	}

	err := r.DB.QueryRowContext(ctx,
		`SELECT name FROM composers WHERE composer_id = ?`, composerID,
	).Scan(&detail.Name)
	if err == sql.ErrNoRows {
		return nil, ErrComposerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup composer %d: %w", composerID, err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT title, creation_year
		FROM works
		WHERE composer_id = ?
		ORDER BY creation_year ASC
		LIMIT 5
	`, composerID)
	if err != nil {
		return nil, fmt.Errorf("representative works: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w RepresentativeWork
		if err := rows.Scan(&w.Title, &w.CreateYear); err != nil {
			return nil, fmt.Errorf("scan representative work: %w", err)
		}
		detail.RepresentWorks = append(detail.RepresentWorks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	if err := r.countsInto(ctx, detail.GenreStat,
		`SELECT genre, COUNT(*) FROM works WHERE composer_id = ? GROUP BY genre`, composerID); err != nil {
		return nil, fmt.Errorf("genre stats: %w", err)
	}
	if err := r.countsInto(ctx, detail.YearDistribution,
		`SELECT decade, COUNT(*) FROM works WHERE composer_id = ? GROUP BY decade ORDER BY decade ASC`, composerID); err != nil {
		return nil, fmt.Errorf("decade stats: %w", err)
	}

	return detail, nil
}

func (r *Repo) countsInto(ctx context.Context, dst map[string]int, query string, args ...any) error {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dst[key] = count
	}
	return rows.Err()
}
