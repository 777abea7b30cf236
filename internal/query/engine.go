package query

import (
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ebi-biostudies/biostudies-index/internal/analyzer"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
	"github.com/ebi-biostudies/biostudies-index/internal/registry"
	"github.com/ebi-biostudies/biostudies-index/internal/security"
	"github.com/ebi-biostudies/biostudies-index/internal/spellcheck"
)

// Response is the full search response: the page of hits, total matches
// before pagination, facet counts, and per-hit highlight snippets keyed
// by accession.
type Response struct {
	Total      int
	Hits       []Hit
	Facets     FacetCounts
	Highlights map[string][]string
	Suggestions []string
}

// Engine executes search requests against the SUBMISSION index.
type Engine struct {
	store     *indexstore.Manager
	registry  *registry.Registry
	analyzers *analyzer.Catalog
	builder   *Builder
	spell     *spellcheck.Checker
	logger    arbor.ILogger
}

// NewEngine builds a query Engine.
func NewEngine(store *indexstore.Manager, reg *registry.Registry, analyzers *analyzer.Catalog, sec *security.Builder, spell *spellcheck.Checker, logger arbor.ILogger) *Engine {
	return &Engine{
		store:     store,
		registry:  reg,
		analyzers: analyzers,
		builder:   NewBuilder(reg, analyzers, sec),
		spell:     spell,
		logger:    logger,
	}
}

// facetFieldNames returns every registry property declared as a facet.
func (e *Engine) facetFieldNames() []string {
	var names []string
	for name, p := range e.registry.GlobalProperties() {
		if p.IsFacet() {
			names = append(names, name)
		}
	}
	return names
}

// Search runs req end to end: preprocess, build, execute, paginate, map,
// facet-count, highlight, and (when a query yields no hits) fall back to
// spell-check suggestions. The SUBMISSION searcher is always released.
func (e *Engine) Search(req Request, secCtx security.Context, seckey string) (Response, error) {
	plan := Preprocess(req)
	boolQuery := e.builder.Build(plan, secCtx, seckey)

	searcher, err := e.store.AcquireSearcher(indexstore.Submission)
	if err != nil {
		return Response{}, err
	}
	defer searcher.Release()

	sortKey := indexstore.SortKey{Field: plan.SortField, Descending: plan.Descending}
	results, err := searcher.Execute(boolQuery, sortKey)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		Total:  len(results),
		Facets: computeFacetCounts(results, e.facetFieldNames()),
	}

	start := (plan.Page - 1) * plan.PageSize
	if start > len(results) {
		start = len(results)
	}
	end := start + plan.PageSize
	if end > len(results) {
		end = len(results)
	}
	page := results[start:end]

	resp.Hits = make([]Hit, 0, len(page))
	if plan.Highlight {
		resp.Highlights = make(map[string][]string, len(page))
	}

	queryTokens := e.analyzers.Default().Analyze(plan.Query)
	for _, r := range page {
		hit := mapHit(r.Doc)
		resp.Hits = append(resp.Hits, hit)
		if plan.Highlight {
			if snippets := highlight(hit.Content, queryTokens); len(snippets) > 0 {
				resp.Highlights[hit.Accession] = snippets
			}
		}
	}

	if resp.Total == 0 && strings.TrimSpace(plan.Query) != "" && e.spell != nil {
		resp.Suggestions = e.spell.Suggest(plan.Query, 10)
	}

	return resp, nil
}
