// Package taxonomy implements facet-path search over the hierarchical
// "efo" facet stored on SUBMISSION documents: depth-agnostic prefix
// search across all facet depths, and direct-child enumeration for a
// given ontology term, each annotated with per-submission counts and the
// EFO id resolved through the ontology term matcher.
package taxonomy

import (
	"sort"
	"strings"

	"github.com/ebi-biostudies/biostudies-index/internal/efo"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

// Field is the SUBMISSION facet field the taxonomy searches.
const Field = "efo"

// TermCount is one aggregated taxonomy result row.
type TermCount struct {
	Term        string
	Count       int
	EFOID       string
	HasChildren bool
}

// Taxonomy runs facet-path queries against the SUBMISSION index's live
// snapshot, annotating results via matcher.
type Taxonomy struct {
	store   *indexstore.Manager
	matcher *efo.EFOTermMatcher
}

// New builds a Taxonomy. matcher may be nil; results are then returned
// without an EFOID annotation.
func New(store *indexstore.Manager, matcher *efo.EFOTermMatcher) *Taxonomy {
	return &Taxonomy{store: store, matcher: matcher}
}

// pathDocs maps every distinct facet path to the set of document ids
// carrying it, read from one acquire/release of a SUBMISSION searcher.
func (t *Taxonomy) pathDocs() (map[string]map[string]bool, error) {
	searcher, err := t.store.AcquireSearcher(indexstore.Submission)
	if err != nil {
		return nil, err
	}
	defer searcher.Release()

	paths := make(map[string]map[string]bool)
	searcher.IterateFacetPostings(Field, func(path, id string) {
		if paths[path] == nil {
			paths[path] = make(map[string]bool)
		}
		paths[path][id] = true
	})
	return paths, nil
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func hasChildPath(paths map[string]map[string]bool, path string) bool {
	prefix := path + "/"
	for p := range paths {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// SearchAllDepths returns every distinct term (last path segment) whose
// lowercased value starts with prefix, counts summed across every full
// facet path ending in that term, sorted alphabetically and truncated to
// max. An IO failure returns an empty slice, never an error.
func (t *Taxonomy) SearchAllDepths(prefix string, max int) []TermCount {
	paths, err := t.pathDocs()
	if err != nil {
		return nil
	}

	lowerPrefix := strings.ToLower(prefix)
	counts := make(map[string]int)
	children := make(map[string]bool)
	for path, docs := range paths {
		term := lastSegment(path)
		if !strings.HasPrefix(strings.ToLower(term), lowerPrefix) {
			continue
		}
		counts[term] += len(docs)
		if hasChildPath(paths, path) {
			children[term] = true
		}
	}

	return t.sortedRows(counts, children, max)
}

// GetChildren enumerates the direct children of parentTerm: every facet
// path segment immediately nested under any full path ending in
// parentTerm, counts aggregated with max (not sum) across parent path
// instances to avoid double-counting a submission appearing under more
// than one branch of the same term, sorted alphabetically and truncated
// to max.
func (t *Taxonomy) GetChildren(parentTerm string, max int) []TermCount {
	paths, err := t.pathDocs()
	if err != nil {
		return nil
	}

	lowerParent := strings.ToLower(parentTerm)
	var parentPaths []string
	for path := range paths {
		if strings.ToLower(lastSegment(path)) == lowerParent {
			parentPaths = append(parentPaths, path)
		}
	}

	counts := make(map[string]int)
	children := make(map[string]bool)
	for _, parentPath := range parentPaths {
		prefix := parentPath + "/"
		for path, docs := range paths {
			if !strings.HasPrefix(path, prefix) {
				continue
			}
			rest := path[len(prefix):]
			if strings.Contains(rest, "/") {
				continue // not a direct child
			}
			if n := len(docs); n > counts[rest] {
				counts[rest] = n
			}
			if hasChildPath(paths, path) {
				children[rest] = true
			}
		}
	}

	return t.sortedRows(counts, children, max)
}

// GetChildrenByEFOID resolves id to its display term via the matcher,
// then returns GetChildren(term, max). Returns nil if the matcher is nil
// or the id is unknown.
func (t *Taxonomy) GetChildrenByEFOID(id string, max int) []TermCount {
	if t.matcher == nil {
		return nil
	}
	term, ok := t.matcher.TermForID(id)
	if !ok {
		return nil
	}
	return t.GetChildren(term, max)
}

func (t *Taxonomy) sortedRows(counts map[string]int, children map[string]bool, max int) []TermCount {
	rows := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		row := TermCount{Term: term, Count: count, HasChildren: children[term]}
		if t.matcher != nil {
			if id, ok := t.matcher.IDForTerm(term); ok {
				row.EFOID = id
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Term < rows[j].Term })
	if max > 0 && len(rows) > max {
		rows = rows[:max]
	}
	return rows
}
