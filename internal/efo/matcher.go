package efo

import (
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

// EFOTermMatcher answers the two questions the submission indexer needs
// about the live EFO index: which ontology terms appear in a text blob, and
// what is a matched term's root-to-parent ancestor chain. It rebuilds its
// in-memory caches from the EFO index's node and alt_term documents rather
// than holding a reference to the ontology Graph, so it stays in sync with
// whatever was last committed (including submission-content-harvested
// augmented alt_terms), not just the originally loaded ontology file.
type EFOTermMatcher struct {
	store  *indexstore.Manager
	logger arbor.ILogger

	mu       sync.RWMutex
	termToID map[string]string // lowercased term/alt_term -> owning node's raw id ("" if no owning node, e.g. an augmented alt_term)
	idToTerm map[string]string // node raw id -> canonical display term
	parentOf map[string]string // node raw id -> first recorded parent's raw id
	terms    []string          // every known lowercased term/alt_term, for FindTerms scanning
}

// NewEFOTermMatcher builds a matcher and performs its initial refresh. A
// failed initial refresh leaves the matcher empty rather than failing
// construction; callers typically rebuild it right after IndexEFO anyway.
func NewEFOTermMatcher(store *indexstore.Manager, logger arbor.ILogger) *EFOTermMatcher {
	m := &EFOTermMatcher{store: store, logger: logger}
	if err := m.Refresh(); err != nil {
		logger.Warn().Err(err).Msg("efo matcher: initial refresh failed, starting empty")
	}
	return m
}

// Refresh rebuilds the matcher's caches from the EFO index's current
// snapshot. Call after every IndexEFO.
func (m *EFOTermMatcher) Refresh() error {
	searcher, err := m.store.AcquireSearcher(indexstore.EFO)
	if err != nil {
		return err
	}
	defer searcher.Release()

	termToID := make(map[string]string)
	idToTerm := make(map[string]string)
	parentOf := make(map[string]string)

	nodes, err := searcher.Execute(&indexstore.BoolQuery{
		Must: []indexstore.Clause{indexstore.ExactClause{Field: "docType", Value: "node"}},
	}, indexstore.SortKey{})
	if err != nil {
		return err
	}
	for _, r := range nodes {
		ids := r.Doc.StoredValues("id")
		termVals := r.Doc.StoredValues("term")
		if len(ids) == 0 || len(termVals) == 0 {
			continue
		}
		id, term := ids[0], termVals[0]
		idToTerm[id] = term
		termToID[normalizeTerm(term)] = id
		if parents := r.Doc.StoredValues("parent"); len(parents) > 0 {
			parentOf[id] = parents[0]
		}
	}

	alts, err := searcher.Execute(&indexstore.BoolQuery{
		Must: []indexstore.Clause{indexstore.ExactClause{Field: "docType", Value: "alt_term"}},
	}, indexstore.SortKey{})
	if err != nil {
		return err
	}
	for _, r := range alts {
		termVals := r.Doc.StoredValues("term")
		if len(termVals) == 0 {
			continue
		}
		key := normalizeTerm(termVals[0])
		if _, exists := termToID[key]; exists {
			continue
		}
		if ids := r.Doc.StoredValues("id"); len(ids) > 0 {
			termToID[key] = ids[0]
		} else {
			termToID[key] = ""
		}
	}

	terms := make([]string, 0, len(termToID))
	for t := range termToID {
		terms = append(terms, t)
	}

	m.mu.Lock()
	m.termToID = termToID
	m.idToTerm = idToTerm
	m.parentOf = parentOf
	m.terms = terms
	m.mu.Unlock()
	return nil
}

// FindTerms returns every known ontology term or synonym occurring as a
// whole word in text, case-insensitively.
func (m *EFOTermMatcher) FindTerms(text string) []string {
	m.mu.RLock()
	terms := m.terms
	m.mu.RUnlock()

	lower := strings.ToLower(text)
	var found []string
	for _, term := range terms {
		if containsWord(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// IDForTerm returns the node efo_id owning term, if any.
func (m *EFOTermMatcher) IDForTerm(term string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.termToID[normalizeTerm(term)]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// TermForID returns the canonical display term for a node's raw ontology
// id, used to resolve an EFO id parameter (e.g. from a taxonomy
// children-by-id request) to its display term.
func (m *EFOTermMatcher) TermForID(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.idToTerm[id]
	return t, ok
}

// AncestorPath returns term's root-to-parent ancestor chain (exclusive of
// term itself), or nil if term is unknown or has no owning node (e.g. an
// augmented alt_term has no ontology position of its own).
func (m *EFOTermMatcher) AncestorPath(term string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.termToID[normalizeTerm(term)]
	if !ok || id == "" {
		return nil
	}

	var chain []string
	seen := map[string]bool{id: true}
	for {
		parent, ok := m.parentOf[id]
		if !ok || parent == "" || seen[parent] {
			break
		}
		seen[parent] = true
		t, ok := m.idToTerm[parent]
		if !ok {
			break
		}
		chain = append([]string{t}, chain...)
		id = parent
	}
	return chain
}

func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	idx := 0
	for {
		pos := strings.Index(haystack[idx:], needle)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(needle)
		if (start == 0 || !isWordByte(haystack[start-1])) && (end == len(haystack) || !isWordByte(haystack[end])) {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
