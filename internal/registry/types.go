// Package registry loads and validates the collection registry: the
// declarative schema that drives JSONPath extraction, analysis and
// parsing for every indexed field.
package registry

import "github.com/ebi-biostudies/biostudies-index/internal/jsonpath"

// FieldType is the storage/search shape of a property.
type FieldType string

const (
	UntokenizedString FieldType = "untokenized_string"
	TokenizedString    FieldType = "tokenized_string"
	Long               FieldType = "long"
	Facet              FieldType = "facet"
)

// ValidFieldTypes enumerates the allowed field types.
var ValidFieldTypes = map[FieldType]bool{
	UntokenizedString: true,
	TokenizedString:   true,
	Long:              true,
	Facet:             true,
}

// Analyzer identifies one of the fixed analyzer catalog entries.
type Analyzer string

const (
	AttributeFieldAnalyzer Analyzer = "attribute"
	AccessFieldAnalyzer    Analyzer = "access"
	LowercaseAnalyzer      Analyzer = "lowercase"
	ExperimentTextAnalyzer Analyzer = "experiment-text"
)

// ValidAnalyzers enumerates the allowed analyzer names.
var ValidAnalyzers = map[Analyzer]bool{
	AttributeFieldAnalyzer: true,
	AccessFieldAnalyzer:    true,
	LowercaseAnalyzer:      true,
	ExperimentTextAnalyzer: true,
}

// Parser identifies one of the fixed parser catalog entries.
type Parser string

const (
	ReleaseTimeParser      Parser = "release-time"
	ReleaseDateParser      Parser = "release-date"
	ModificationTimeParser Parser = "modification-time"
	GenericParser          Parser = "generic"
	FileTypeParser         Parser = "file-type"
)

// ValidParsers enumerates the allowed parser names.
var ValidParsers = map[Parser]bool{
	ReleaseTimeParser:      true,
	ReleaseDateParser:      true,
	ModificationTimeParser: true,
	GenericParser:          true,
	FileTypeParser:         true,
}

// PropertyDescriptor is the immutable schema entry declaring how to
// extract and index one field.
type PropertyDescriptor struct {
	Name         string
	Title        string
	FieldType    FieldType
	Analyzer     Analyzer // optional, "" means "use the default"
	Parser       Parser   // optional, "" means "use a generic JSONPath parser"
	JSONPaths    []string
	CompiledPaths []*jsonpath.Path
	Sortable     bool
	MultiValued  bool
	Retrieved    bool
	Expanded     bool
	Private      bool
	ToLowerCase  bool
	FacetType    string
	DefaultValue string
	Match        string // optional validation regex
}

// IsFacet reports whether this descriptor is derived as a facet field.
func (p *PropertyDescriptor) IsFacet() bool { return p.FieldType == Facet }

// CollectionDescriptor groups an ordered list of property descriptors
// under one collection name.
type CollectionDescriptor struct {
	CollectionName string
	Properties     []*PropertyDescriptor
}

// PropertyMap returns a name -> descriptor lookup for this collection.
func (c *CollectionDescriptor) PropertyMap() map[string]*PropertyDescriptor {
	m := make(map[string]*PropertyDescriptor, len(c.Properties))
	for _, p := range c.Properties {
		m[p.Name] = p
	}
	return m
}

// PublicCollectionName is the reserved collection whose properties are
// implicitly appended to every other collection's effective property
// list.
const PublicCollectionName = "public"
