// Package analyzer implements the fixed catalog of text analyzers and
// the per-field dispatcher that routes registry fields to them.
// Initialization is single-threaded at startup; once built, a Catalog is
// read-only and safe for concurrent use without locks.
package analyzer

import (
	"strings"
	"unicode"
)

// Analyzer turns raw text into an ordered list of index tokens.
type Analyzer interface {
	Analyze(text string) []string
}

// AttributeField is the default analyzer: letter/digit tokens, ASCII
// folded, stop-worded, lowercased.
type AttributeField struct {
	Stopwords map[string]bool
}

// NewAttributeField builds an AttributeField analyzer with the given
// stop-word list (case-insensitive).
func NewAttributeField(stopwords []string) *AttributeField {
	return &AttributeField{Stopwords: toSet(stopwords)}
}

func (a *AttributeField) Analyze(text string) []string {
	return tokenize(text, isLetterOrDigit, a.Stopwords, true)
}

// AccessField preserves access-token punctuation (@.~#-_) as intra-token
// characters, in addition to letters and digits.
type AccessField struct {
	Stopwords map[string]bool
}

// NewAccessField builds an AccessField analyzer.
func NewAccessField(stopwords []string) *AccessField {
	return &AccessField{Stopwords: toSet(stopwords)}
}

func (a *AccessField) Analyze(text string) []string {
	return tokenize(text, isAccessChar, a.Stopwords, true)
}

// Lowercase emits letter-only tokens, lowercased, with no stop-wording.
type Lowercase struct{}

func (Lowercase) Analyze(text string) []string {
	return tokenize(text, unicode.IsLetter, nil, true)
}

// ExperimentText is a tokenized, lowercased analyzer over letters and
// digits with no stop-wording (used for long free-text experiment
// descriptions where stop-word removal would hide meaningful matches).
type ExperimentText struct{}

func (ExperimentText) Analyze(text string) []string {
	return tokenize(text, isLetterOrDigit, nil, true)
}

func isLetterOrDigit(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func isAccessChar(r rune) bool {
	if isLetterOrDigit(r) {
		return true
	}
	switch r {
	case '@', '.', '~', '#', '-', '_':
		return true
	}
	return false
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return set
}

// tokenize splits text into runs of characters satisfying keep, ASCII
// folds and lowercases each token, and drops tokens present in
// stopwords.
func tokenize(text string, keep func(rune) bool, stopwords map[string]bool, lower bool) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tok := asciiFold(cur.String())
		if lower {
			tok = strings.ToLower(tok)
		}
		cur.Reset()
		if stopwords != nil && stopwords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range text {
		if keep(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// asciiFold strips combining diacritics from common Latin letters (é ->
// e, ü -> u, ...) using a direct rune table, avoiding a dependency on
// golang.org/x/text/unicode/norm for a small fixed alphabet.
func asciiFold(s string) string {
	var b strings.Builder
	for _, r := range s {
		if folded, ok := foldTable[r]; ok {
			b.WriteRune(folded)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var foldTable = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'À': 'A', 'Á': 'A', 'Â': 'A', 'Ã': 'A', 'Ä': 'A', 'Å': 'A',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'È': 'E', 'É': 'E', 'Ê': 'E', 'Ë': 'E',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'Ì': 'I', 'Í': 'I', 'Î': 'I', 'Ï': 'I',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'Ò': 'O', 'Ó': 'O', 'Ô': 'O', 'Õ': 'O', 'Ö': 'O',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'Ù': 'U', 'Ú': 'U', 'Û': 'U', 'Ü': 'U',
	'ñ': 'n', 'Ñ': 'N',
	'ç': 'c', 'Ç': 'C',
	'ý': 'y', 'ÿ': 'y', 'Ý': 'Y',
}
