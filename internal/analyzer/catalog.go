package analyzer

import "github.com/ebi-biostudies/biostudies-index/internal/registry"

// Catalog is the fixed set of analyzers keyed by the registry's
// Analyzer enum, plus a per-field dispatcher built from it.
type Catalog struct {
	attribute      *AttributeField
	access         *AccessField
	lowercase      Lowercase
	experimentText ExperimentText
	byField        map[string]Analyzer
}

// NewCatalog builds the fixed analyzer catalog. stopwords feeds the
// AttributeField and AccessField analyzers.
func NewCatalog(stopwords []string) *Catalog {
	return &Catalog{
		attribute: NewAttributeField(stopwords),
		access:    NewAccessField(stopwords),
		byField:   make(map[string]Analyzer),
	}
}

// ByName resolves one of the fixed enum entries to its Analyzer
// implementation.
func (c *Catalog) ByName(name registry.Analyzer) Analyzer {
	switch name {
	case registry.AccessFieldAnalyzer:
		return c.access
	case registry.LowercaseAnalyzer:
		return c.lowercase
	case registry.ExperimentTextAnalyzer:
		return c.experimentText
	default:
		return c.attribute
	}
}

// Default returns the AttributeFieldAnalyzer, used for any field without
// an explicit analyzer.
func (c *Catalog) Default() Analyzer { return c.attribute }

// BuildDispatcher populates the per-field analyzer map from every
// property descriptor in reg that declares an explicit analyzer. This
// must run once at startup, before concurrent reads begin.
func (c *Catalog) BuildDispatcher(reg *registry.Registry) {
	for name, p := range reg.GlobalProperties() {
		if p.Analyzer != "" {
			c.byField[name] = c.ByName(p.Analyzer)
		}
	}
}

// ForField returns the analyzer registered for field, or the default
// analyzer if the field has none. Reads are lock-free: the map is
// populated once by BuildDispatcher and never mutated afterward.
func (c *Catalog) ForField(field string) Analyzer {
	if a, ok := c.byField[field]; ok {
		return a
	}
	return c.Default()
}
