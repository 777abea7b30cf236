// Package indexstore implements the multi-index manager: four logical
// inverted indices (submission, files, page_tab, efo), each backed by its
// own Badger directory, with ref-counted searchers and a background
// reopen worker bounding staleness between near-real-time writes and
// visible reads.
package indexstore

import "strconv"

// IndexName identifies one of the four coordinated logical indices.
type IndexName string

const (
	Submission IndexName = "submission"
	Files      IndexName = "files"
	PageTab    IndexName = "page_tab"
	EFO        IndexName = "efo"
)

// All lists the three submission-related indices (EFO excluded) in the
// fixed commit order used by commit-submission-related callers.
var All = []IndexName{Submission, Files, PageTab}

// FieldKind distinguishes how a Field contributes to a Document: as a
// stored-only value, as tokenized search terms, as an exact (untokenized)
// term, as a hierarchical facet path, or as a sortable numeric value.
type FieldKind int

const (
	StoredField FieldKind = iota
	TokenizedField
	ExactField
	FacetField
	LongField
)

// Field is one named contribution to a Document. A field may be stored
// (retrieved verbatim), tokenized (searchable term-by-term), exact
// (searchable only as a whole value), a facet path, or a sortable long.
type Field struct {
	Name   string
	Kind   FieldKind
	Value  string
	Tokens []string
	Long   int64
	Stored bool
}

// NewStored creates a stored-only field, retrievable but not searchable.
func NewStored(name, value string) Field {
	return Field{Name: name, Kind: StoredField, Value: value, Stored: true}
}

// NewTokenized creates a searchable tokenized field; if stored is true the
// original value is also retrievable.
func NewTokenized(name, value string, tokens []string, stored bool) Field {
	return Field{Name: name, Kind: TokenizedField, Value: value, Tokens: tokens, Stored: stored}
}

// NewExact creates an untokenized, exact-match searchable field.
func NewExact(name, value string, stored bool) Field {
	return Field{Name: name, Kind: ExactField, Value: value, Stored: stored}
}

// NewFacet creates a hierarchical facet-path field ("a/b/c").
func NewFacet(name, path string) Field {
	return Field{Name: name, Kind: FacetField, Value: path, Stored: true}
}

// NewLong creates a sortable numeric field, always stored.
func NewLong(name string, value int64) Field {
	return Field{Name: name, Kind: LongField, Long: value, Stored: true}
}

// Document is one indexable unit: an internal id (assigned by the
// writer), the accession it belongs to (used for accession-scoped
// delete-then-add replacement), and its ordered fields.
type Document struct {
	ID        string
	Accession string
	Fields    []Field
}

// Get returns the first field with the given name, if present.
func (d *Document) Get(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// StoredValues returns every stored value for a field name, in field
// order (supports multi-valued stored fields).
func (d *Document) StoredValues(name string) []string {
	var out []string
	for _, f := range d.Fields {
		if f.Name != name || !f.Stored {
			continue
		}
		if f.Kind == LongField {
			out = append(out, strconv.FormatInt(f.Long, 10))
			continue
		}
		out = append(out, f.Value)
	}
	return out
}
