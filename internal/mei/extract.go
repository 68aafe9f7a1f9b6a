// Package mei extracts catalogue metadata from MEI (Music Encoding
// Initiative) XML descriptions of single works.
package mei

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Validation bounds for creation years. The corpus covers late-romantic and
// early-modern composers, so anything outside this window is a mis-parsed date.
const (
	MinYear = 1800
	MaxYear = 2000
)

var (
	ErrMissingTitle   = errors.New("mei: missing work title")
	ErrMissingGenre   = errors.New("mei: no classification terms")
	ErrMissingDate    = errors.New("mei: no creation date")
	ErrInvalidYear    = errors.New("mei: creation year is not an integer")
	ErrYearOutOfRange = errors.New("mei: creation year outside corpus range")
)

// Result is the extracted, validated metadata of one work. It carries no
// composer attribution or decade bucket; both come from source-level context
// the extractor does not see.
type Result struct {
	Title  string
	Genres []string
	Year   int
}

type meiDocument struct {
	XMLName xml.Name `xml:"mei"`
	Head    meiHead  `xml:"meiHead"`
}

type meiHead struct {
	FileDesc struct {
		TitleStmt struct {
			Titles []string `xml:"title"`
		} `xml:"titleStmt"`
	} `xml:"fileDesc"`
	WorkList struct {
		Works []meiWork `xml:"work"`
	} `xml:"workList"`
}

type meiWork struct {
	Classification struct {
		TermList struct {
			Terms []string `xml:"term"`
		} `xml:"termList"`
	} `xml:"classification"`
	Creation struct {
		Dates []meiDate `xml:"date"`
	} `xml:"creation"`
}

type meiDate struct {
	Isodate   string `xml:"isodate,attr"`
	NotBefore string `xml:"notbefore,attr"`
}

// Extract parses the MEI artifact at path and returns its metadata, or an
// error describing why the artifact was rejected. It never panics; every
// failure mode of a noisy corpus maps to an error return.
func Extract(path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var doc meiDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse mei xml: %w", err)
	}

	title := firstTitle(doc)
	if title == "" {
		return nil, ErrMissingTitle
	}

	genres := classificationTerms(doc)
	if len(genres) == 0 {
		return nil, ErrMissingGenre
	}

	year, err := creationYear(doc)
	if err != nil {
		return nil, err
	}

	return &Result{Title: title, Genres: genres, Year: year}, nil
}

func firstTitle(doc meiDocument) string {
	for _, t := range doc.Head.FileDesc.TitleStmt.Titles {
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
	}
	return ""
}

func classificationTerms(doc meiDocument) []string {
	var terms []string
	for _, w := range doc.Head.WorkList.Works {
		for _, t := range w.Classification.TermList.Terms {
			if s := strings.TrimSpace(t); s != "" {
				terms = append(terms, s)
			}
		}
	}
	return terms
}

// creationYear reads the first creation date of the first work entry. The
// explicit isodate attribute wins; a notbefore bound is the fallback. Partial
// and range dates ("1887-1890", "1903-05-01") contribute their leading year.
func creationYear(doc meiDocument) (int, error) {
	var date *meiDate
	for _, w := range doc.Head.WorkList.Works {
		if len(w.Creation.Dates) > 0 {
			date = &w.Creation.Dates[0]
			break
		}
	}
	if date == nil {
		return 0, ErrMissingDate
	}

	value := date.Isodate
	if value == "" {
		value = date.NotBefore
	}
	if value == "" {
		return 0, ErrMissingDate
	}

	if i := strings.Index(value, "-"); i >= 0 {
		value = value[:i]
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, value)
	}
	if year < MinYear || year > MaxYear {
		return 0, fmt.Errorf("%w: %d", ErrYearOutOfRange, year)
	}
	return year, nil
}
