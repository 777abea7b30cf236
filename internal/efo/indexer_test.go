package efo

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebi-biostudies/biostudies-index/internal/common"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

func openTestStore(t *testing.T) *indexstore.Manager {
	t.Helper()
	store, err := indexstore.Open(t.TempDir(), common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.CloseAll() })
	return store
}

func TestIndexEFO_BuildsNodeAltTermAndExpansionDocs(t *testing.T) {
	store := openTestStore(t)

	g, err := LoadFromBytes([]byte(diseaseCancerOntology))
	require.NoError(t, err)
	r := &Resolver{Graph: g, RootID: RootID}

	ix := NewIndexer(store, common.GetLogger())
	require.NoError(t, ix.IndexEFO(r))

	s, err := store.AcquireSearcher(indexstore.EFO)
	require.NoError(t, err)
	defer s.Release()

	nodes, err := s.Execute(&indexstore.BoolQuery{Must: []indexstore.Clause{indexstore.ExactClause{Field: "docType", Value: "node"}}}, indexstore.SortKey{})
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	alts, err := s.Execute(&indexstore.BoolQuery{Must: []indexstore.Clause{indexstore.ExactClause{Field: "docType", Value: "alt_term"}}}, indexstore.SortKey{})
	require.NoError(t, err)
	require.Len(t, alts, 1)
	require.Equal(t, "neoplasm", alts[0].Doc.StoredValues("term")[0])

	expansions, err := s.Execute(&indexstore.BoolQuery{Must: []indexstore.Clause{indexstore.ExactClause{Field: "docType", Value: "expansion"}}}, indexstore.SortKey{})
	require.NoError(t, err)
	require.Len(t, expansions, 2)
}

func TestIndexEFO_HarvestsAugmentedAltTerms(t *testing.T) {
	store := openTestStore(t)

	writer := store.Writer(indexstore.Submission)
	for i := 0; i < minAugmentedDocFreq; i++ {
		writer.AddDocument(&indexstore.Document{
			ID: "s" + strconv.Itoa(i),
			Fields: []indexstore.Field{
				indexstore.NewTokenized("content", "carcinoma study", []string{"carcinoma", "study"}, false),
			},
		})
	}
	require.NoError(t, writer.Commit())
	store.RefreshAll()

	g, err := LoadFromBytes([]byte(diseaseCancerOntology))
	require.NoError(t, err)
	r := &Resolver{Graph: g, RootID: RootID}

	ix := NewIndexer(store, common.GetLogger())
	require.NoError(t, ix.IndexEFO(r))

	s, err := store.AcquireSearcher(indexstore.EFO)
	require.NoError(t, err)
	defer s.Release()

	results, err := s.Execute(&indexstore.BoolQuery{Must: []indexstore.Clause{indexstore.TermClause{Field: "term", Token: "carcinoma"}}}, indexstore.SortKey{})
	require.NoError(t, err)
	require.True(t, len(results) >= 1)
}

func TestEFOTermMatcher_FindTermsAndAncestorPath(t *testing.T) {
	store := openTestStore(t)
	g, err := LoadFromBytes([]byte(diseaseCancerOntology))
	require.NoError(t, err)
	r := &Resolver{Graph: g, RootID: RootID}

	ix := NewIndexer(store, common.GetLogger())
	require.NoError(t, ix.IndexEFO(r))

	matcher := NewEFOTermMatcher(store, common.GetLogger())

	found := matcher.FindTerms("Patient diagnosed with lung cancer and neoplasm markers.")
	require.Contains(t, found, "lung cancer")
	require.Contains(t, found, "neoplasm")

	require.Equal(t, []string{"disease", "cancer"}, matcher.AncestorPath("lung cancer"))
	require.Equal(t, []string{"disease"}, matcher.AncestorPath("cancer"))
	require.Empty(t, matcher.AncestorPath("disease"))
}

func TestEFOTermMatcher_NoFalseWordBoundaryMatch(t *testing.T) {
	store := openTestStore(t)
	g, err := LoadFromBytes([]byte(diseaseCancerOntology))
	require.NoError(t, err)
	r := &Resolver{Graph: g, RootID: RootID}

	ix := NewIndexer(store, common.GetLogger())
	require.NoError(t, ix.IndexEFO(r))

	matcher := NewEFOTermMatcher(store, common.GetLogger())
	found := matcher.FindTerms(strings.ToLower("noncancerous tissue sample"))
	require.NotContains(t, found, "cancer")
}
