package indexstore

import "strings"

// Key encoding. Badger has no native secondary-index support, so the
// index manager encodes postings directly into the key space and relies
// on prefix iteration for term/facet/accession lookups. A "!" separator
// is used throughout since none of the inputs (field names, tokens,
// facet paths, accessions, ids) legally contain it after normalization.
const sep = "!"

func docKey(id string) []byte {
	return []byte("doc" + sep + id)
}

func termKey(field, token, id string) []byte {
	return []byte("term" + sep + field + sep + token + sep + id)
}

func termPrefix(field, token string) []byte {
	return []byte("term" + sep + field + sep + token + sep)
}

func fieldTermPrefix(field string) []byte {
	return []byte("term" + sep + field + sep)
}

func exactKey(field, value, id string) []byte {
	return []byte("exact" + sep + field + sep + value + sep + id)
}

func exactPrefix(field, value string) []byte {
	return []byte("exact" + sep + field + sep + value + sep)
}

func fieldExactPrefix(field string) []byte {
	return []byte("exact" + sep + field + sep)
}

func facetKey(field, path, id string) []byte {
	return []byte("facet" + sep + field + sep + path + sep + id)
}

func facetFieldPrefix(field string) []byte {
	return []byte("facet" + sep + field + sep)
}

func accessionKey(accession, id string) []byte {
	return []byte("acc" + sep + accession + sep + id)
}

func accessionPrefix(accession string) []byte {
	return []byte("acc" + sep + accession + sep)
}

// idFromKey extracts the trailing id segment of a key built with one of
// the helpers above (the id never itself contains the separator).
func idFromKey(key []byte) string {
	s := string(key)
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

// facetPathFromKey extracts the path segment of a facet key.
func facetPathFromKey(key []byte, field string) string {
	s := string(key)
	prefix := "facet" + sep + field + sep
	s = strings.TrimPrefix(s, prefix)
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return s
	}
	return s[:idx]
}
