// Package spellcheck implements the three-level suggestion cascade: an
// accession-looking query is corrected against the SUBMISSION accession
// field, everything else is first corrected against the EFO term field
// and, only if that yields nothing, against the SUBMISSION content
// field. No third-party spell-checker exists anywhere in the retrieval
// pack, so suggestions are produced with a hand-rolled "suggest when not
// in index" edit-distance ranking directly over each field's term
// dictionary (via the index manager's posting-list iteration), mirroring
// the shape of a Lucene direct spell checker without depending on one.
package spellcheck

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

// accessionPatterns mirrors the two accession regex families the cascade
// uses to decide whether a query should be corrected against the
// accession field instead of the term/content fields.
var accessionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[ES]-\w{2,6}(-\d+)?$`),
	regexp.MustCompile(`^S-\w{4}\d+$`),
}

// LooksLikeAccession reports whether query matches either accession
// regex family.
func LooksLikeAccession(query string) bool {
	for _, re := range accessionPatterns {
		if re.MatchString(query) {
			return true
		}
	}
	return false
}

// Checker runs the suggestion cascade against a live index manager.
type Checker struct {
	store *indexstore.Manager
}

// New builds a Checker.
func New(store *indexstore.Manager) *Checker {
	return &Checker{store: store}
}

// Suggest runs the cascade for query, returning up to max suggestions.
// Any IO failure acquiring a searcher yields an empty slice for that
// level, never an error.
func (c *Checker) Suggest(query string, max int) []string {
	if LooksLikeAccession(query) {
		return c.suggestSimilar(indexstore.Submission, "accession", true, query, max)
	}

	if s := c.suggestSimilar(indexstore.EFO, "term", false, query, max); len(s) > 0 {
		return s
	}
	return c.suggestSimilar(indexstore.Submission, "content", false, query, max)
}

// suggestSimilar implements "SUGGEST_WHEN_NOT_IN_INDEX": if query itself
// is already a known value in field, no suggestion is produced (the
// query is presumably already correct). Otherwise every distinct value
// in field (exact postings for exactField, tokenized postings
// otherwise) is ranked by edit distance to query and the closest max are
// returned in ascending distance then alphabetical order.
func (c *Checker) suggestSimilar(index indexstore.IndexName, field string, exactField bool, query string, max int) []string {
	searcher, err := c.store.AcquireSearcher(index)
	if err != nil {
		return nil
	}
	defer searcher.Release()

	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" {
		return nil
	}

	type candidate struct {
		term string
		dist int
	}
	var exists bool
	var candidates []candidate

	consider := func(token string) {
		token = strings.ToLower(token)
		if token == lower {
			exists = true
			return
		}
		d := levenshtein(lower, token)
		if d <= maxEditDistance(lower) {
			candidates = append(candidates, candidate{term: token, dist: d})
		}
	}

	if exactField {
		searcher.IterateExactValues(field, consider)
	} else {
		searcher.IterateTerms(field, consider)
	}

	if exists || len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].term < candidates[j].term
	})

	if max <= 0 || max > len(candidates) {
		max = len(candidates)
	}
	out := make([]string, max)
	for i := 0; i < max; i++ {
		out[i] = candidates[i].term
	}
	return out
}

// maxEditDistance scales the acceptable edit distance with query length,
// so short queries require a near-exact match and longer ones tolerate
// a couple of typos.
func maxEditDistance(query string) int {
	switch {
	case len(query) <= 4:
		return 1
	case len(query) <= 8:
		return 2
	default:
		return 3
	}
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		cur[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			cur[j] = best
		}
		prev, cur = cur, prev
	}
	return prev[m]
}
