package query

import (
	"strings"

	"github.com/ebi-biostudies/biostudies-index/internal/analyzer"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
	"github.com/ebi-biostudies/biostudies-index/internal/registry"
	"github.com/ebi-biostudies/biostudies-index/internal/security"
)

// facetParamPrefix identifies a conjunctive facet filter parameter
// (facet.<name>=value), in addition to the bare "<name>[]" array form.
const facetParamPrefix = "facet."

// Builder composes a BoolQuery from a preprocessed plan, the registry
// (for free-text field routing and per-field analyzers) and the security
// context (allow/deny/seckey).
type Builder struct {
	registry  *registry.Registry
	analyzers *analyzer.Catalog
	security  *security.Builder
}

// NewBuilder builds a query Builder.
func NewBuilder(reg *registry.Registry, analyzers *analyzer.Catalog, sec *security.Builder) *Builder {
	return &Builder{registry: reg, analyzers: analyzers, security: sec}
}

// excludedDocTypes parses a "type:v1 type:v2" token sequence out of a
// free-text query, returning the cleaned remainder plus the excluded
// type values.
func excludedDocTypes(q string) (string, []string) {
	var kept []string
	var excluded []string
	for _, tok := range strings.Fields(q) {
		if v, ok := strings.CutPrefix(tok, "type:"); ok && v != "" {
			excluded = append(excluded, v)
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " "), excluded
}

// Build composes the full security-filtered BoolQuery for plan.
func (b *Builder) Build(plan Plan, secCtx security.Context, seckey string) *indexstore.BoolQuery {
	q := &indexstore.BoolQuery{}

	freeText, excludedTypes := excludedDocTypes(plan.Query)
	if strings.TrimSpace(freeText) != "" {
		q.Must = append(q.Must, b.freeTextClause(freeText))
	}

	for name, values := range plan.Facets {
		field := strings.TrimSuffix(strings.TrimPrefix(name, facetParamPrefix), "[]")
		for _, v := range values {
			q.Must = append(q.Must, indexstore.FacetPrefixClause{Field: field, Prefix: v})
		}
	}

	for name, value := range plan.Fields {
		p, ok := b.registry.Property(name)
		if !ok {
			continue
		}
		q.Must = append(q.Must, b.fieldClause(p, value))
	}

	for _, t := range excludedTypes {
		q.MustNot = append(q.MustNot, indexstore.ExactClause{Field: "type", Value: t})
	}

	must, mustNot := b.security.Apply(secCtx, seckey)
	q.Must = append(q.Must, must...)
	q.MustNot = append(q.MustNot, mustNot...)

	return q
}

// freeTextClause ORs a TermClause per analyzed token across every
// globally searchable field, so a free-text query matches if any
// searchable field contains any of its tokens.
func (b *Builder) freeTextClause(text string) indexstore.Clause {
	var sub []indexstore.Clause
	for _, field := range b.registry.SearchableFields() {
		for _, tok := range b.analyzers.ForField(field).Analyze(text) {
			sub = append(sub, indexstore.TermClause{Field: field, Token: tok})
		}
	}
	if len(sub) == 0 {
		return indexstore.OrClause{}
	}
	return indexstore.OrClause{Clauses: sub}
}

func (b *Builder) fieldClause(p *registry.PropertyDescriptor, value string) indexstore.Clause {
	if p.FieldType == registry.TokenizedString {
		tokens := b.analyzers.ForField(p.Name).Analyze(value)
		var sub []indexstore.Clause
		for _, tok := range tokens {
			sub = append(sub, indexstore.TermClause{Field: p.Name, Token: tok})
		}
		return indexstore.OrClause{Clauses: sub}
	}
	return indexstore.ExactClause{Field: p.Name, Value: value}
}
