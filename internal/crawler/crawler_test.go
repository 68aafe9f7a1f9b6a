package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSource exercises the shared walk loop against an httptest server.
type stubSource struct {
	base  string
	pages int
}

func (s *stubSource) Name() string     { return "stub" }
func (s *stubSource) Composer() string { return "Test Composer" }
func (s *stubSource) Pages() int       { return s.pages }

func (s *stubSource) PageURL(page int) string {
	return fmt.Sprintf("%s/listing?page=%d", s.base, page)
}

func (s *stubSource) DetailLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find("a.work").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})
	return links
}

func (s *stubSource) ResolveDownloadURL(_ context.Context, _ *http.Client, detailURL string) (string, error) {
	// detail and download pages share the work id
	return strings.ReplaceAll(detailURL, "/detail?id=", "/xml?name="), nil
}

func newCatalogueServer(t *testing.T, downloads *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	var srv *httptest.Server
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><body>
			<a class="work" href="%[1]s/detail?id=alpha.xml">Alpha</a>
			<a class="work" href="%[1]s/detail?id=broken.xml">Broken</a>
		</body></html>`, srv.URL)
	})
	mux.HandleFunc("/xml", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "broken.xml" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		downloads.Add(1)
		fmt.Fprintf(w, "<mei>%s</mei>", name)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWalkAcquiresArtifacts(t *testing.T) {
	var downloads atomic.Int64
	srv := newCatalogueServer(t, &downloads)

	src := &stubSource{base: srv.URL, pages: 2} // page 2 404s, must be skipped
	w := NewWalker(5*time.Second, 0, discardLogger())
	dir := t.TempDir()

	records, err := w.Walk(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	// broken.xml fails to download and must not yield a record
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d: %+v", len(records), records)
	}
	rec := records[0]
	if rec.Source != "stub" {
		t.Errorf("unexpected source %q", rec.Source)
	}
	if !strings.Contains(rec.DetailURL, "detail?id=alpha.xml") {
		t.Errorf("unexpected detail url %q", rec.DetailURL)
	}
	if rec.ArtifactPath != filepath.Join(dir, "alpha.xml") {
		t.Errorf("unexpected artifact path %q", rec.ArtifactPath)
	}
	body, err := os.ReadFile(rec.ArtifactPath)
	if err != nil {
		t.Fatalf("artifact not persisted: %v", err)
	}
	if string(body) != "<mei>alpha.xml</mei>" {
		t.Errorf("unexpected artifact content %q", body)
	}
}

func TestWalkIsIdempotentAcrossRuns(t *testing.T) {
	var downloads atomic.Int64
	srv := newCatalogueServer(t, &downloads)

	src := &stubSource{base: srv.URL, pages: 1}
	w := NewWalker(5*time.Second, 0, discardLogger())
	dir := t.TempDir()

	if _, err := w.Walk(context.Background(), src, dir); err != nil {
		t.Fatalf("first walk failed: %v", err)
	}
	first := downloads.Load()

	records, err := w.Walk(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("second walk failed: %v", err)
	}
	if downloads.Load() != first {
		t.Errorf("expected no re-download, got %d -> %d", first, downloads.Load())
	}
	// existing artifacts still produce records
	if len(records) != 1 {
		t.Errorf("expected 1 record on re-run, got %d", len(records))
	}
}

func TestWalkCreatesArtifactDir(t *testing.T) {
	var downloads atomic.Int64
	srv := newCatalogueServer(t, &downloads)

	dir := filepath.Join(t.TempDir(), "nested", "Test Composer")
	w := NewWalker(5*time.Second, 0, discardLogger())
	if _, err := w.Walk(context.Background(), &stubSource{base: srv.URL, pages: 1}, dir); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("artifact dir not created: %v", err)
	}
}

func TestArtifactName(t *testing.T) {
	cases := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://www.kb.dk/dcm/cnw/download.xq?doc=cnw0012.xml", want: "cnw0012.xml"},
		{url: "https://www.kb.dk/dcm/cnw/download.xq?doc=cnw0012.xml&format=xml", want: "cnw0012.xml"},
		{url: "https://delius.music.ox.ac.uk/catalogue/download_xml.html?page=RT-I-1", want: "RT-I-1"},
		{url: "https://example.org/no-token", wantErr: true},
		{url: "https://example.org/empty?doc=", wantErr: true},
	}
	for _, tc := range cases {
		got, err := artifactName(tc.url)
		if tc.wantErr {
			if err == nil {
				t.Errorf("artifactName(%q): expected error", tc.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("artifactName(%q): %v", tc.url, err)
			continue
		}
		if got != tc.want {
			t.Errorf("artifactName(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
