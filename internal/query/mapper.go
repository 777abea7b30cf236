package query

import "github.com/ebi-biostudies/biostudies-index/internal/indexstore"

// Hit is one mapped search result.
type Hit struct {
	Accession   string
	Type        string
	Title       string
	Author      string
	Links       int64
	Files       int64
	ReleaseDate string
	Views       int64
	IsPublic    bool
	Content     string
}

func mapHit(doc *indexstore.Document) Hit {
	return Hit{
		Accession:   first(doc.StoredValues("accession")),
		Type:        first(doc.StoredValues("type")),
		Title:       first(doc.StoredValues("title")),
		Author:      first(doc.StoredValues("author")),
		Links:       longOf(doc, "links"),
		Files:       longOf(doc, "files"),
		ReleaseDate: first(doc.StoredValues("release_date")),
		Views:       longOf(doc, "views"),
		IsPublic:    first(doc.StoredValues("isPublic")) == "true",
		Content:     first(doc.StoredValues("content")),
	}
}

func longOf(doc *indexstore.Document, name string) int64 {
	f, ok := doc.Get(name)
	if !ok || f.Kind != indexstore.LongField {
		return 0
	}
	return f.Long
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
