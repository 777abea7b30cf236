package efo

import (
	"strings"

	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

// childInfo is a non-organizational child's own representation (term plus
// synonyms), carried by expansionInput so the expander can fold a child's
// full term set into its parent's expansion document without the expander
// needing to walk the graph itself.
type childInfo struct {
	term           string
	synonyms       []string
	organizational bool
}

// expansionInput is everything Expander.Build needs to produce (or skip) one
// node's query-expansion document.
type expansionInput struct {
	term     string
	synonyms []string
	children []childInfo
}

// Expander builds query-expansion documents: qe.term holds the searchable
// keys a query might use, qe.efo holds the broader terms such a query
// should additionally match. A child contributes its full term+synonym set
// to its parent's qe.efo unconditionally, but only contributes to the
// parent's qe.term when the child itself carries at least one synonym
// (otherwise the parent's search-key set would balloon with every leaf
// descendant's bare name).
type Expander struct {
	stopwords map[string]bool
}

// NewExpander builds an expander with the given stop-word list (nil or
// empty disables stop-word filtering).
func NewExpander(stopwords []string) *Expander {
	set := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		set[normalizeTerm(w)] = true
	}
	return &Expander{stopwords: set}
}

// Build returns the expansion document for in, or nil if in's term is a
// stop word or the resulting expansion set is empty.
func (e *Expander) Build(in expansionInput) *indexstore.Document {
	term := normalizeTerm(in.term)
	if e.stopwords[term] {
		return nil
	}

	termKeys := map[string]bool{}
	efoValues := map[string]bool{}

	if clean := cleanExpansionValue(in.term); clean != "" {
		termKeys[clean] = true
	}

	for _, syn := range in.synonyms {
		if !validSynonym(syn) {
			continue
		}
		if clean := cleanExpansionValue(syn); clean != "" {
			termKeys[clean] = true
			efoValues[clean] = true
		}
	}

	for _, child := range in.children {
		if child.organizational {
			continue
		}
		childHasSynonym := false
		for _, syn := range child.synonyms {
			if !validSynonym(syn) {
				continue
			}
			clean := cleanExpansionValue(syn)
			if clean == "" {
				continue
			}
			efoValues[clean] = true
			childHasSynonym = true
		}
		if childTerm := cleanExpansionValue(child.term); childTerm != "" {
			efoValues[childTerm] = true
			if childHasSynonym {
				termKeys[childTerm] = true
				for _, syn := range child.synonyms {
					if !validSynonym(syn) {
						continue
					}
					if clean := cleanExpansionValue(syn); clean != "" {
						termKeys[clean] = true
					}
				}
			}
		}
	}

	if len(efoValues) == 0 {
		return nil
	}

	fields := []indexstore.Field{indexstore.NewExact("docType", "expansion", true)}
	for _, v := range setToSorted(termKeys) {
		fields = append(fields, indexstore.NewFacet("qe.term", v))
	}
	for _, v := range setToSorted(efoValues) {
		fields = append(fields, indexstore.NewFacet("qe.efo", v))
	}

	return &indexstore.Document{ID: "qe:" + term, Fields: fields}
}

// validSynonym rejects qualified forms ("(NOS)", "[obsolete]", internal
// commas, " - ", "/") and anything shorter than 3 characters.
func validSynonym(s string) bool {
	if len(strings.TrimSpace(s)) < 3 {
		return false
	}
	lower := strings.ToLower(s)
	for _, qualifier := range []string{"(nos)", "[obsolete]", ",", " - ", "/"} {
		if strings.Contains(lower, qualifier) {
			return false
		}
	}
	return true
}

// cleanExpansionValue lowercases s and strips everything but [a-z0-9-] and
// spaces, collapsing repeated whitespace.
func cleanExpansionValue(s string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastWasSpace = false
		case r == ' ' || r == '\t':
			if !lastWasSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastWasSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func setToSorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
