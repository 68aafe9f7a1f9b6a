package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestNielsenDetailLinksFromOnclick(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<table class="result_table" onclick="location.href='./document.xq?n=12'"><tr><td>CNW 12</td></tr></table>
		<table class="result_table" onclick="location.href='/dcm/cnw/document.xq?n=13'"><tr><td>CNW 13</td></tr></table>
		<table class="result_table"><tr><td>no onclick</td></tr></table>
		<table class="other"><tr><td>ignored</td></tr></table>
	</body></html>`)

	src := NewNielsenSource()
	links := src.DetailLinks(doc)
	want := []string{
		"https://www.kb.dk/dcm/cnw/document.xq?n=12",
		"https://www.kb.dk/dcm/cnw/document.xq?n=13",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %v", len(want), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestNielsenResolveDownloadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="./somewhere.html">Other link</a>
			<a href="./download.xq?doc=cnw0012.xml&amp;format=xml">Download XML</a>
		</body></html>`)
	}))
	defer srv.Close()

	src := NewNielsenSource()
	client := &http.Client{Timeout: 5 * time.Second}
	got, err := src.ResolveDownloadURL(context.Background(), client, srv.URL+"/document.xq?n=12")
	if err != nil {
		t.Fatalf("ResolveDownloadURL failed: %v", err)
	}
	if got != "https://www.kb.dk/dcm/cnw/download.xq?doc=cnw0012.xml&format=xml" {
		t.Errorf("unexpected download url %q", got)
	}
}

func TestNielsenResolveDownloadURLMissingLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="./elsewhere.html">nothing here</a></body></html>`)
	}))
	defer srv.Close()

	src := NewNielsenSource()
	client := &http.Client{Timeout: 5 * time.Second}
	if _, err := src.ResolveDownloadURL(context.Background(), client, srv.URL); err == nil {
		t.Fatal("expected error when the page has no xml download link")
	}
}

func TestNielsenPageURL(t *testing.T) {
	src := NewNielsenSource()
	got := src.PageURL(3)
	want := "https://www.kb.dk/dcm/cnw/index.xq?page=3&itemsPerPage=20&sortby=null%2Cwork_number"
	if got != want {
		t.Errorf("PageURL(3) = %q, want %q", got, want)
	}
}

func TestOnclickTarget(t *testing.T) {
	if _, ok := onclickTarget("doSomethingElse()"); ok {
		t.Error("expected no target for unrelated onclick")
	}
	if _, ok := onclickTarget(""); ok {
		t.Error("expected no target for empty onclick")
	}
	target, ok := onclickTarget("location.href='./document.xq?n=4'; return false")
	if !ok || target != "./document.xq?n=4" {
		t.Errorf("unexpected target %q (ok=%v)", target, ok)
	}
}

func TestDeliusDetailLinks(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="./document.html?page=RT-I-1"><div class="workListItem">Florida Suite</div></a>
		<a href="/document.html?page=RT-I-2"><div class="workListItem">Hiawatha</div></a>
		<a href="https://delius.music.ox.ac.uk/catalogue/document.html?page=RT-I-3"><div class="workListItem">Irmelin</div></a>
		<div class="workListItem">orphan without anchor</div>
	</body></html>`)

	src := NewDeliusSource()
	links := src.DetailLinks(doc)
	want := []string{
		"https://delius.music.ox.ac.uk/catalogue/document.html?page=RT-I-1",
		"https://delius.music.ox.ac.uk/catalogue/document.html?page=RT-I-2",
		"https://delius.music.ox.ac.uk/catalogue/document.html?page=RT-I-3",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %v", len(want), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestDeliusResolveDownloadURLBySubstitution(t *testing.T) {
	src := NewDeliusSource()
	got, err := src.ResolveDownloadURL(context.Background(), nil,
		"https://delius.music.ox.ac.uk/catalogue/document.html?page=RT-I-1")
	if err != nil {
		t.Fatalf("ResolveDownloadURL failed: %v", err)
	}
	if got != "https://delius.music.ox.ac.uk/catalogue/download_xml.html?page=RT-I-1" {
		t.Errorf("unexpected download url %q", got)
	}
}

func TestSourceDefaults(t *testing.T) {
	nielsen := NewNielsenSource()
	if nielsen.Pages() != 23 || nielsen.Name() != "cnw" || nielsen.Composer() != "Carl Nielsen" {
		t.Errorf("unexpected nielsen defaults: %+v", nielsen)
	}
	delius := NewDeliusSource()
	if delius.Pages() != 7 || delius.Name() != "delius" || delius.Composer() != "Frederick Delius" {
		t.Errorf("unexpected delius defaults: %+v", delius)
	}
}
