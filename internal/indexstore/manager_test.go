package indexstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebi-biostudies/biostudies-index/internal/common"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := Open(dir, common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.CloseAll() })
	return m
}

func TestAddDocumentAndSearch(t *testing.T) {
	m := testManager(t)

	doc := &Document{
		ID:        "1",
		Accession: "S-BSST1",
		Fields: []Field{
			NewStored("accession", "S-BSST1"),
			NewTokenized("title", "Cancer of the Lung", []string{"cancer", "lung"}, true),
		},
	}
	m.Writer(Submission).AddDocument(doc)
	require.NoError(t, m.Writer(Submission).Commit())
	m.RefreshAll()

	s, err := m.AcquireSearcher(Submission)
	require.NoError(t, err)
	defer s.Release()

	results, err := s.Execute(&BoolQuery{Must: []Clause{TermClause{Field: "title", Token: "cancer"}}}, SortKey{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "S-BSST1", results[0].Doc.StoredValues("accession")[0])
}

func TestDeleteByAccessionReplacesOneDocument(t *testing.T) {
	m := testManager(t)
	w := m.Writer(Submission)

	w.AddDocument(&Document{ID: "1", Accession: "S-BSST1", Fields: []Field{NewStored("accession", "S-BSST1")}})
	require.NoError(t, w.Commit())
	m.RefreshAll()

	w.DeleteByAccession("S-BSST1")
	w.AddDocument(&Document{ID: "2", Accession: "S-BSST1", Fields: []Field{NewStored("accession", "S-BSST1")}})
	require.NoError(t, w.Commit())
	m.RefreshAll()

	s, err := m.AcquireSearcher(Submission)
	require.NoError(t, err)
	defer s.Release()

	results, err := s.Execute(&BoolQuery{Must: []Clause{ExactClause{Field: "none", Value: "none"}}}, SortKey{})
	require.NoError(t, err)
	assert.Empty(t, results)

	all, err := s.Execute(&BoolQuery{}, SortKey{})
	require.NoError(t, err)
	count := 0
	for _, r := range all {
		if r.Doc.Accession == "S-BSST1" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFacetPrefixClause(t *testing.T) {
	m := testManager(t)
	w := m.Writer(Submission)
	w.AddDocument(&Document{ID: "1", Fields: []Field{NewFacet("efo", "root/disease/cancer")}})
	w.AddDocument(&Document{ID: "2", Fields: []Field{NewFacet("efo", "root/disease")}})
	require.NoError(t, w.Commit())
	m.RefreshAll()

	s, err := m.AcquireSearcher(Submission)
	require.NoError(t, err)
	defer s.Release()

	results, err := s.Execute(&BoolQuery{Must: []Clause{FacetPrefixClause{Field: "efo", Prefix: "root/disease"}}}, SortKey{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAcquireReleaseDoesNotLeakAcrossReopen(t *testing.T) {
	m := testManager(t)
	s1, err := m.AcquireSearcher(Submission)
	require.NoError(t, err)

	m.RefreshAll()

	s2, err := m.AcquireSearcher(Submission)
	require.NoError(t, err)

	s1.Release()
	s2.Release()
}

func TestCommitSubmissionRelatedOrder(t *testing.T) {
	m := testManager(t)
	m.Writer(Submission).AddDocument(&Document{ID: "1", Fields: []Field{NewStored("a", "1")}})
	m.Writer(Files).AddDocument(&Document{ID: "1", Fields: []Field{NewStored("a", "1")}})
	m.Writer(PageTab).AddDocument(&Document{ID: "1", Fields: []Field{NewStored("a", "1")}})

	require.NoError(t, m.CommitSubmissionRelated())
	m.RefreshAll()

	for _, name := range All {
		s, err := m.AcquireSearcher(name)
		require.NoError(t, err)
		results, err := s.Execute(&BoolQuery{}, SortKey{})
		require.NoError(t, err)
		assert.Len(t, results, 1)
		s.Release()
	}
}
