package models

// Composer is a catalogued composer identity. ComposerID is assigned by the
// store on first insert and never changes; Name is unique across the store.
type Composer struct {
	ComposerID      int64  `json:"composer_id"`
	Name            string `json:"name"`
	CatalogueSource string `json:"catalogue_source"`
}

// AcquisitionRecord is the intermediate output of a source adapter: one
// discovered work, where its detail page lives and where the fetched XML
// artifact was written. Records are serialized one JSON object per line
// between the crawl and load stages and are not retained after loading.
type AcquisitionRecord struct {
	DetailURL    string `json:"detail_url"`
	ArtifactPath string `json:"artifact_path"`
	Source       string `json:"source"`
}

// Work is the normalized, persisted form of a musical work.
//
// Genre holds the ordered classification terms joined with commas; duplicate
// terms within one work are kept as extracted. Decade is derived from
// CreationYear and stored denormalized so the query side can group and
// filter on it directly.
type Work struct {
	WorkID       int64  `json:"work_id"`
	ComposerID   int64  `json:"composer_id"`
	Title        string `json:"title"`
	Genre        string `json:"genre"`
	CreationYear int    `json:"creation_year"`
	DetailURL    string `json:"detail_url"`
	Composer     string `json:"composer"`
	Decade       string `json:"decade"`
}
