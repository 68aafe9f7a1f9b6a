// Package crawler acquires raw MEI XML artifacts from remote catalogue
// sources. Each source contributes only its resolution strategy (how listing
// entries map to detail pages and download URLs); the pagination, fetch,
// rate-limit and persistence loop is shared by Walker.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"opuscat/pkg/models"
)

// Browser-ish user agent; some catalogue hosts reject the Go default.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Source is implemented once per remote catalogue. It describes the listing
// shape and how to get from a listing entry to a downloadable XML location.
type Source interface {
	Name() string
	Composer() string

	// Pages bounds the listing walk.
	Pages() int
	PageURL(page int) string

	// DetailLinks extracts absolute detail-page URLs from one listing page.
	DetailLinks(doc *goquery.Document) []string

	// ResolveDownloadURL turns a detail-page URL into the URL of the work's
	// XML artifact. Implementations may fetch the detail page or derive the
	// URL by transformation.
	ResolveDownloadURL(ctx context.Context, client *http.Client, detailURL string) (string, error)
}

// Walker runs the shared listing walk for any Source.
type Walker struct {
	Client    *http.Client
	Delay     time.Duration
	UserAgent string
	Logger    *slog.Logger
}

func NewWalker(timeout, delay time.Duration, logger *slog.Logger) *Walker {
	return &Walker{
		Client:    &http.Client{Timeout: timeout},
		Delay:     delay,
		UserAgent: defaultUserAgent,
		Logger:    logger,
	}
}

// Walk crawls every listing page of src, downloads each work's XML into dir
// and returns an AcquisitionRecord per entry that yielded both a detail URL
// and a persisted artifact. Per-item and per-page failures are logged and
// skipped; the walk itself only fails if dir cannot be created.
func (w *Walker) Walk(ctx context.Context, src Source, dir string) ([]models.AcquisitionRecord, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	var records []models.AcquisitionRecord
	for page := 1; page <= src.Pages(); page++ {
		doc, err := w.fetchDocument(ctx, src.PageURL(page))
		if err != nil {
			w.Logger.Warn("listing page failed",
				"source", src.Name(), "page", page, "error", err)
			continue
		}

		links := src.DetailLinks(doc)
		if len(links) == 0 {
			w.Logger.Warn("no work entries on listing page",
				"source", src.Name(), "page", page)
			continue
		}

		for _, detailURL := range links {
			path, err := w.download(ctx, src, detailURL, dir)
			if err != nil {
				w.Logger.Warn("artifact fetch failed",
					"source", src.Name(), "detail_url", detailURL, "error", err)
			} else if detailURL != "" && path != "" {
				records = append(records, models.AcquisitionRecord{
					DetailURL:    detailURL,
					ArtifactPath: path,
					Source:       src.Name(),
				})
			}
			w.pause(ctx)
		}
	}
	return records, nil
}

// download resolves the XML location for detailURL and persists it under dir.
// The local filename is the token embedded after the first "=" of the
// download URL, so an artifact that already exists is reused as-is.
func (w *Walker) download(ctx context.Context, src Source, detailURL, dir string) (string, error) {
	xmlURL, err := src.ResolveDownloadURL(ctx, w.Client, detailURL)
	if err != nil {
		return "", err
	}

	name, err := artifactName(xmlURL)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	body, err := w.fetch(ctx, xmlURL)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	w.Logger.Info("artifact downloaded", "source", src.Name(), "path", path)
	return path, nil
}

// artifactName derives the local filename from the download URL: the token
// after the first "=", up to the next query separator
// (e.g. ".../download.xq?doc=cnw0012.xml&format=xml" -> "cnw0012.xml").
func artifactName(downloadURL string) (string, error) {
	_, token, ok := strings.Cut(downloadURL, "=")
	if !ok {
		return "", fmt.Errorf("no filename token in download url %q", downloadURL)
	}
	token, _, _ = strings.Cut(token, "&")
	if token == "" {
		return "", fmt.Errorf("no filename token in download url %q", downloadURL)
	}
	return filepath.Base(token), nil
}

func (w *Walker) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", w.UserAgent)

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (w *Walker) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := w.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", rawURL, err)
	}
	return doc, nil
}

// pause applies the inter-item delay without outliving a cancelled context.
func (w *Walker) pause(ctx context.Context) {
	if w.Delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(w.Delay):
	}
}
