package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const deliusBase = "https://delius.music.ox.ac.uk/catalogue"

// DeliusSource crawls the Delius catalogue at delius.music.ox.ac.uk. Unlike
// the CNW site it needs no detail-page visit: the XML download URL is the
// detail URL with its "document" segment swapped for "download_xml".
type DeliusSource struct {
	BaseURL  string
	MaxPages int
}

func NewDeliusSource() *DeliusSource {
	return &DeliusSource{BaseURL: deliusBase, MaxPages: 7}
}

func (s *DeliusSource) Name() string     { return "delius" }
func (s *DeliusSource) Composer() string { return "Frederick Delius" }
func (s *DeliusSource) Pages() int       { return s.MaxPages }

func (s *DeliusSource) PageURL(page int) string {
	return fmt.Sprintf("%s/navigation.html?page=%d", s.BaseURL, page)
}

func (s *DeliusSource) DetailLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find("div.workListItem").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Closest("a").Attr("href")
		if !ok || href == "" {
			return
		}
		links = append(links, s.absoluteURL(href))
	})
	return links
}

func (s *DeliusSource) ResolveDownloadURL(_ context.Context, _ *http.Client, detailURL string) (string, error) {
	return strings.ReplaceAll(detailURL, "document", "download_xml"), nil
}

func (s *DeliusSource) absoluteURL(href string) string {
	switch {
	case strings.HasPrefix(href, "./"):
		return s.BaseURL + "/" + strings.TrimLeft(href, "./")
	case strings.HasPrefix(href, "/"):
		return s.BaseURL + href
	default:
		return href
	}
}
