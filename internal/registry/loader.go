package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ebi-biostudies/biostudies-index/internal/apperrors"
	"github.com/ebi-biostudies/biostudies-index/internal/jsonpath"
)

// rawProperty mirrors the registry JSON wire format.
type rawProperty struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	FieldType    string   `json:"fieldType"`
	Analyzer     string   `json:"analyzer"`
	Parser       string   `json:"parser"`
	JSONPaths    []string `json:"jsonPaths"`
	Sortable     bool     `json:"sortable"`
	MultiValued  bool     `json:"multiValued"`
	Retrieved    bool     `json:"retrieved"`
	Expanded     bool     `json:"expanded"`
	Private      bool     `json:"private"`
	ToLowerCase  bool     `json:"toLowerCase"`
	FacetType    string   `json:"facetType"`
	DefaultValue string   `json:"defaultValue"`
	Match        string   `json:"match"`
}

type rawCollection struct {
	CollectionName string        `json:"collectionName"`
	Properties     []rawProperty `json:"properties"`
}

// Registry is the fully validated, loaded collection registry. Once
// Load returns successfully, a Registry's caches are immutable and
// safe for lock-free concurrent reads.
type Registry struct {
	collections        []*CollectionDescriptor
	byName             map[string]*CollectionDescriptor // lowercased collection name -> descriptor
	globalProperties   map[string]*PropertyDescriptor    // name -> descriptor, union of all collections
	effectiveProperties map[string][]*PropertyDescriptor // lowercased collection name -> collection props + public props
	searchableFields   []string
}

// Load reads, parses and validates the registry JSON at path. A
// structural error (bad field type, unknown analyzer/parser, an
// uncompilable JSONPath, or a property name duplicated across
// collections) aborts the load with an InvalidInput error naming the
// offending property.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.FatalResourcef(err, "registry: cannot read %s", path)
	}

	var raw []rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.InvalidInputf("registry: invalid JSON in %s: %v", path, err)
	}

	return build(raw)
}

// LoadFromBytes parses and validates registry JSON already in memory,
// used by tests and by callers that fetch the registry from a non-file
// source.
func LoadFromBytes(data []byte) (*Registry, error) {
	var raw []rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.InvalidInputf("registry: invalid JSON: %v", err)
	}
	return build(raw)
}

func build(raw []rawCollection) (*Registry, error) {
	collections := make([]*CollectionDescriptor, 0, len(raw))
	globalProperties := make(map[string]*PropertyDescriptor)
	totalProps := 0

	for _, rc := range raw {
		if strings.TrimSpace(rc.CollectionName) == "" {
			return nil, apperrors.InvalidInputf("registry: collection with empty collectionName")
		}
		cd := &CollectionDescriptor{CollectionName: rc.CollectionName}
		for _, rp := range rc.Properties {
			pd, err := buildProperty(rp)
			if err != nil {
				return nil, fmt.Errorf("registry: collection %q: %w", rc.CollectionName, err)
			}
			if _, dup := globalProperties[pd.Name]; dup {
				return nil, apperrors.InvalidInputf("registry: property %q duplicated across collections", pd.Name)
			}
			globalProperties[pd.Name] = pd
			cd.Properties = append(cd.Properties, pd)
			totalProps++
		}
		collections = append(collections, cd)
	}

	if totalProps != len(globalProperties) {
		return nil, apperrors.InvalidInputf("registry: global property count mismatch (invariant violated)")
	}

	byName := make(map[string]*CollectionDescriptor, len(collections))
	for _, cd := range collections {
		byName[strings.ToLower(cd.CollectionName)] = cd
	}

	var publicProps []*PropertyDescriptor
	if pub, ok := byName[strings.ToLower(PublicCollectionName)]; ok {
		publicProps = pub.Properties
	}

	effective := make(map[string][]*PropertyDescriptor, len(collections))
	searchableSet := make(map[string]bool)
	for _, cd := range collections {
		lname := strings.ToLower(cd.CollectionName)
		props := append([]*PropertyDescriptor{}, cd.Properties...)
		if lname != strings.ToLower(PublicCollectionName) {
			props = append(props, publicProps...)
		}
		effective[lname] = props
		for _, p := range props {
			if p.FieldType == TokenizedString {
				searchableSet[p.Name] = true
			}
		}
	}

	searchable := make([]string, 0, len(searchableSet))
	for name := range searchableSet {
		searchable = append(searchable, name)
	}

	return &Registry{
		collections:         collections,
		byName:              byName,
		globalProperties:    globalProperties,
		effectiveProperties: effective,
		searchableFields:    searchable,
	}, nil
}

func buildProperty(rp rawProperty) (*PropertyDescriptor, error) {
	if strings.TrimSpace(rp.Name) == "" {
		return nil, apperrors.InvalidInputf("property missing name")
	}

	ft := FieldType(strings.ToLower(rp.FieldType))
	if !ValidFieldTypes[ft] {
		return nil, apperrors.InvalidInputf("property %q: invalid fieldType %q", rp.Name, rp.FieldType)
	}

	var analyzer Analyzer
	if rp.Analyzer != "" {
		analyzer = Analyzer(rp.Analyzer)
		if !ValidAnalyzers[analyzer] {
			return nil, apperrors.InvalidInputf("property %q: invalid analyzer %q", rp.Name, rp.Analyzer)
		}
	}

	var parser Parser
	if rp.Parser != "" {
		parser = Parser(rp.Parser)
		if !ValidParsers[parser] {
			return nil, apperrors.InvalidInputf("property %q: invalid parser %q", rp.Name, rp.Parser)
		}
	}

	compiled := make([]*jsonpath.Path, 0, len(rp.JSONPaths))
	for _, raw := range rp.JSONPaths {
		cp, err := jsonpath.Compile(raw)
		if err != nil {
			return nil, apperrors.InvalidInputf("property %q: invalid jsonPath %q: %v", rp.Name, raw, err)
		}
		compiled = append(compiled, cp)
	}

	return &PropertyDescriptor{
		Name:          rp.Name,
		Title:         rp.Title,
		FieldType:     ft,
		Analyzer:      analyzer,
		Parser:        parser,
		JSONPaths:     rp.JSONPaths,
		CompiledPaths: compiled,
		Sortable:      rp.Sortable,
		MultiValued:   rp.MultiValued,
		Retrieved:     rp.Retrieved,
		Expanded:      rp.Expanded,
		Private:       rp.Private,
		ToLowerCase:   rp.ToLowerCase,
		FacetType:     rp.FacetType,
		DefaultValue:  rp.DefaultValue,
		Match:         rp.Match,
	}, nil
}

// Collections returns the ordered list of collection descriptors.
func (r *Registry) Collections() []*CollectionDescriptor { return r.collections }

// GlobalProperties returns the name -> descriptor map formed by the union
// of every collection's properties.
func (r *Registry) GlobalProperties() map[string]*PropertyDescriptor { return r.globalProperties }

// Collection looks up a collection descriptor case-insensitively.
func (r *Registry) Collection(name string) (*CollectionDescriptor, bool) {
	cd, ok := r.byName[strings.ToLower(name)]
	return cd, ok
}

// EffectiveProperties returns the property descriptors in effect for a
// collection: its own properties plus (for every collection except
// "public" itself) the public collection's properties appended.
func (r *Registry) EffectiveProperties(collection string) []*PropertyDescriptor {
	return r.effectiveProperties[strings.ToLower(collection)]
}

// Property looks up a property descriptor by name across the whole
// registry.
func (r *Registry) Property(name string) (*PropertyDescriptor, bool) {
	p, ok := r.globalProperties[name]
	return p, ok
}

// SearchableFields returns the global array of tokenized-string field
// names used for free-text query expansion.
func (r *Registry) SearchableFields() []string { return r.searchableFields }
