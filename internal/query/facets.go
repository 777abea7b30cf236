package query

import "github.com/ebi-biostudies/biostudies-index/internal/indexstore"

// FacetCounts maps a facet field name to its value -> doc-count
// histogram, computed over the full (unpaginated) result set.
type FacetCounts map[string]map[string]int

func computeFacetCounts(results []*indexstore.SearchResult, facetFields []string) FacetCounts {
	wanted := make(map[string]bool, len(facetFields))
	for _, f := range facetFields {
		wanted[f] = true
	}

	counts := make(FacetCounts)
	for _, r := range results {
		for _, f := range r.Doc.Fields {
			if f.Kind != indexstore.FacetField || !wanted[f.Name] {
				continue
			}
			byValue, ok := counts[f.Name]
			if !ok {
				byValue = make(map[string]int)
				counts[f.Name] = byValue
			}
			byValue[f.Value]++
		}
	}
	return counts
}
