package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	nielsenDomain = "https://www.kb.dk"
	nielsenBase   = nielsenDomain + "/dcm/cnw"
)

// NielsenSource crawls the Carl Nielsen Works catalogue (CNW) at kb.dk.
// Listing entries carry their detail link in an onclick attribute, and the
// XML download link has to be located on each detail page.
type NielsenSource struct {
	BaseURL  string
	MaxPages int
}

func NewNielsenSource() *NielsenSource {
	return &NielsenSource{BaseURL: nielsenBase, MaxPages: 23}
}

func (s *NielsenSource) Name() string     { return "cnw" }
func (s *NielsenSource) Composer() string { return "Carl Nielsen" }
func (s *NielsenSource) Pages() int       { return s.MaxPages }

func (s *NielsenSource) PageURL(page int) string {
	return fmt.Sprintf("%s/index.xq?page=%d&itemsPerPage=20&sortby=null%%2Cwork_number", s.BaseURL, page)
}

func (s *NielsenSource) DetailLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find("table.result_table").Each(func(_ int, sel *goquery.Selection) {
		onclick, _ := sel.Attr("onclick")
		rel, ok := onclickTarget(onclick)
		if !ok {
			return
		}
		links = append(links, s.absoluteURL(rel))
	})
	return links
}

// ResolveDownloadURL fetches the detail page and locates the XML download
// button by its link characteristics.
func (s *NielsenSource) ResolveDownloadURL(ctx context.Context, client *http.Client, detailURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailURL, nil)
	if err != nil {
		return "", fmt.Errorf("build detail request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch detail page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch detail page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse detail page: %w", err)
	}

	link := doc.Find(`a[href*='download'][href*='xml'], a[href*='DOWNLOAD'][href*='XML']`).First()
	if link.Length() == 0 {
		// page variant with a plain download.xq link
		link = doc.Find(`a[href*='download.xq'][href*='format=xml']`).First()
	}
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return "", fmt.Errorf("xml download link not found on %s", detailURL)
	}
	return s.absoluteURL(href), nil
}

func (s *NielsenSource) absoluteURL(href string) string {
	switch {
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "/"):
		return nielsenDomain + href
	default:
		return s.BaseURL + "/" + strings.TrimLeft(href, "./")
	}
}

// onclickTarget pulls the relative detail link out of an onclick attribute of
// the form "location.href='./document.xq?n=12'".
func onclickTarget(onclick string) (string, bool) {
	const marker = "location.href='"
	_, rest, ok := strings.Cut(onclick, marker)
	if !ok {
		return "", false
	}
	target, _, ok := strings.Cut(rest, "'")
	if !ok || target == "" {
		return "", false
	}
	return target, true
}
