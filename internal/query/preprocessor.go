// Package query implements the query engine: request preprocessing,
// registry-aware query building, security-filtered execution against the
// SUBMISSION index, facet counting and highlight selection.
package query

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 1000

	// releaseDateField is the registry's display field for a submission's
	// release date (untokenized_string); it has no numeric value to sort
	// by. releaseTimeField is the parallel Long field carrying the same
	// release time as an epoch-ms value and is what sorting is done on.
	releaseDateField = "release_date"
	releaseTimeField = "releaseTime"
)

// Request is an incoming search request before preprocessing.
type Request struct {
	Query      string
	Page       int
	PageSize   int
	SortField  string // "" means unset
	Descending bool
	SortSet    bool // true if the caller explicitly supplied a sort
	Facets     map[string][]string
	Fields     map[string]string
}

// Plan is a preprocessed request: a concrete sort, clamped paging, and
// whether highlighting is enabled.
type Plan struct {
	Query       string
	Page        int
	PageSize    int
	SortField   string
	Descending  bool
	Highlight   bool
	Facets      map[string][]string
	Fields      map[string]string
}

// Preprocess normalizes req per the browsing/relevance sort-default
// rule: empty query + no sort -> releaseTime desc (browsing); nonempty
// query + no sort -> relevance desc; otherwise the caller's sort, default
// order desc. Highlighting is enabled iff the query is nonempty.
func Preprocess(req Request) Plan {
	plan := Plan{
		Query:  req.Query,
		Facets: req.Facets,
		Fields: req.Fields,
	}

	switch {
	case !req.SortSet && req.Query == "":
		plan.SortField = releaseTimeField
		plan.Descending = true
	case !req.SortSet && req.Query != "":
		plan.SortField = "" // "" means relevance
		plan.Descending = true
	default:
		plan.SortField = req.SortField
		plan.Descending = req.Descending
	}

	plan.Page = req.Page
	if plan.Page < 1 {
		plan.Page = defaultPage
	}
	plan.PageSize = req.PageSize
	if plan.PageSize <= 0 {
		plan.PageSize = defaultPageSize
	}
	if plan.PageSize > maxPageSize {
		plan.PageSize = maxPageSize
	}

	plan.Highlight = req.Query != ""
	return plan
}
