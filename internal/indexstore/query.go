package indexstore

import (
	"sort"

	"github.com/dgraph-io/badger/v4"
)

// Clause is one leaf condition in a boolean query.
type Clause interface {
	matchingIDs(txn *badger.Txn) (map[string]bool, error)
}

// TermClause matches documents whose tokenized field contains token.
type TermClause struct {
	Field string
	Token string
}

func (c TermClause) matchingIDs(txn *badger.Txn) (map[string]bool, error) {
	return scanIDs(txn, termPrefix(c.Field, c.Token))
}

// ExactClause matches documents whose exact field equals value.
type ExactClause struct {
	Field string
	Value string
}

func (c ExactClause) matchingIDs(txn *badger.Txn) (map[string]bool, error) {
	return scanIDs(txn, exactPrefix(c.Field, c.Value))
}

// FacetPrefixClause matches documents whose facet field has a path equal
// to or nested under prefix (used for taxonomy depth filters).
type FacetPrefixClause struct {
	Field  string
	Prefix string
}

func (c FacetPrefixClause) matchingIDs(txn *badger.Txn) (map[string]bool, error) {
	ids := make(map[string]bool)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	base := facetFieldPrefix(c.Field)
	for it.Seek(base); it.ValidForPrefix(base); it.Next() {
		path := facetPathFromKey(it.Item().KeyCopy(nil), c.Field)
		if path == c.Prefix || len(path) > len(c.Prefix) && path[:len(c.Prefix)] == c.Prefix && path[len(c.Prefix)] == '/' {
			ids[idFromKey(it.Item().KeyCopy(nil))] = true
		}
	}
	return ids, nil
}

// OrClause matches the union of its sub-clauses.
type OrClause struct {
	Clauses []Clause
}

func (c OrClause) matchingIDs(txn *badger.Txn) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, sub := range c.Clauses {
		ids, err := sub.matchingIDs(txn)
		if err != nil {
			return nil, err
		}
		for id := range ids {
			out[id] = true
		}
	}
	return out, nil
}

// MatchAllClause matches every stored document in the index (used as the
// base clause of an empty free-text query).
type MatchAllClause struct{}

func (c MatchAllClause) matchingIDs(txn *badger.Txn) (map[string]bool, error) {
	ids := make(map[string]bool)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := []byte("doc" + sep)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids[idFromKey(it.Item().KeyCopy(nil))] = true
	}
	return ids, nil
}

func scanIDs(txn *badger.Txn, prefix []byte) (map[string]bool, error) {
	ids := make(map[string]bool)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids[idFromKey(it.Item().KeyCopy(nil))] = true
	}
	return ids, nil
}

// DocFreq returns the number of distinct documents carrying token in
// field (used by the EFO augmented alt_term harvest).
func DocFreq(txn *badger.Txn, field, token string) int {
	count := 0
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := termPrefix(field, token)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		count++
	}
	return count
}

// BoolQuery composes must (AND), should (OR, at least one if must is
// empty) and mustNot (AND NOT) clauses, mirroring the Lucene-style
// boolean query the query engine and security builder compose against.
type BoolQuery struct {
	Must    []Clause
	Should  []Clause
	MustNot []Clause
}

// SortKey orders result ids either by a stored long field or by a
// synthetic relevance score (a constant 1 for every match, so relevance
// order is match order), descending or ascending.
type SortKey struct {
	Field      string // "" means relevance
	Descending bool
}

// SearchResult is one matched, loaded document plus its sort value.
type SearchResult struct {
	Doc   *Document
	Score int64
}

// Execute runs q against the searcher's snapshot, returning all matching
// documents (unpaginated; callers apply page/pageSize).
func (s *Searcher) Execute(q *BoolQuery, sortKey SortKey) ([]*SearchResult, error) {
	var ids map[string]bool
	var err error

	if len(q.Must) == 0 && len(q.Should) == 0 {
		ids, err = (MatchAllClause{}).matchingIDs(s.txn)
	} else {
		for i, c := range q.Must {
			cur, cerr := c.matchingIDs(s.txn)
			if cerr != nil {
				return nil, cerr
			}
			if i == 0 {
				ids = cur
				continue
			}
			ids = intersect(ids, cur)
		}
		if len(q.Should) > 0 {
			shouldIDs, serr := (OrClause{Clauses: q.Should}).matchingIDs(s.txn)
			if serr != nil {
				return nil, serr
			}
			if ids == nil {
				ids = shouldIDs
			} else {
				ids = intersect(ids, shouldIDs)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	for _, c := range q.MustNot {
		excl, eerr := c.matchingIDs(s.txn)
		if eerr != nil {
			return nil, eerr
		}
		for id := range excl {
			delete(ids, id)
		}
	}

	results := make([]*SearchResult, 0, len(ids))
	for id := range ids {
		doc, gerr := s.loadDocument(id)
		if gerr != nil {
			continue
		}
		results = append(results, &SearchResult{Doc: doc, Score: scoreFor(doc, sortKey)})
	}

	sort.Slice(results, func(i, j int) bool {
		if sortKey.Descending {
			return results[i].Score > results[j].Score
		}
		return results[i].Score < results[j].Score
	})

	return results, nil
}

func scoreFor(doc *Document, sortKey SortKey) int64 {
	if sortKey.Field == "" {
		return 1
	}
	if f, ok := doc.Get(sortKey.Field); ok && f.Kind == LongField {
		return f.Long
	}
	return 0
}

func intersect(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for id := range small {
		if big[id] {
			out[id] = true
		}
	}
	return out
}
