package submission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebi-biostudies/biostudies-index/internal/analyzer"
	"github.com/ebi-biostudies/biostudies-index/internal/common"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
	"github.com/ebi-biostudies/biostudies-index/internal/parser"
	"github.com/ebi-biostudies/biostudies-index/internal/registry"
)

const testRegistryJSON = `[{"collectionName":"c1","properties":[
	{"name":"accession","fieldType":"untokenized_string","jsonPaths":["$.accNo"],"retrieved":true},
	{"name":"title","fieldType":"tokenized_string","jsonPaths":["$.title"],"retrieved":true},
	{"name":"access","fieldType":"tokenized_string","analyzer":"access","jsonPaths":["$.access[*]"],"retrieved":true},
	{"name":"releaseTime","fieldType":"long","parser":"release-time","jsonPaths":["$.releaseTime"]},
	{"name":"release_date","title":"Release date","fieldType":"untokenized_string","parser":"release-date","jsonPaths":["$.releaseTime"],"retrieved":true}
]}]`

func newTestIndexer(t *testing.T) (*Indexer, *indexstore.Manager) {
	t.Helper()
	reg, err := registry.LoadFromBytes([]byte(testRegistryJSON))
	require.NoError(t, err)

	cat := analyzer.NewCatalog(nil)
	cat.BuildDispatcher(reg)

	store, err := indexstore.Open(t.TempDir(), common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.CloseAll() })

	ix := New(reg, cat, parser.NewCatalog(), store, nil, common.GetLogger())
	return ix, store
}

func TestIndexOne_SingleHitAfterCommit(t *testing.T) {
	ix, store := newTestIndexer(t)

	raw := []byte(`{"accNo":"S-BSST1","title":"Cancer of the Lung","access":["PUBLIC"],"released":true,"releaseTime":{"$date":"2024-01-15T00:00:00Z"}}`)

	err := ix.IndexOne("c1", raw, nil, store.CommitSubmissionRelated)
	require.NoError(t, err)

	s, err := store.AcquireSearcher(indexstore.Submission)
	require.NoError(t, err)
	defer s.Release()

	results, err := s.Execute(&indexstore.BoolQuery{Must: []indexstore.Clause{indexstore.TermClause{Field: "title", Token: "cancer"}}}, indexstore.SortKey{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	doc := results[0].Doc
	require.Equal(t, "S-BSST1", doc.StoredValues("accession")[0])
	require.Equal(t, "2024-01-15", doc.StoredValues("release_date")[0])
	require.Equal(t, "true", doc.StoredValues("isPublic")[0])
}

func TestIndexOne_ReindexReplacesPriorDocument(t *testing.T) {
	ix, store := newTestIndexer(t)
	raw := []byte(`{"accNo":"S-BSST1","title":"Cancer of the Lung","access":["PUBLIC"],"released":true}`)

	require.NoError(t, ix.IndexOne("c1", raw, nil, store.CommitSubmissionRelated))
	require.NoError(t, ix.IndexOne("c1", raw, nil, store.CommitSubmissionRelated))

	s, err := store.AcquireSearcher(indexstore.Submission)
	require.NoError(t, err)
	defer s.Release()

	results, err := s.Execute(&indexstore.BoolQuery{}, indexstore.SortKey{})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestIndexOne_RejectsMissingAccession(t *testing.T) {
	ix, store := newTestIndexer(t)
	err := ix.IndexOne("c1", []byte(`{"title":"no accession"}`), nil, store.CommitSubmissionRelated)
	require.Error(t, err)
}

func TestIndexOne_NotReleasedRestrictsAccess(t *testing.T) {
	ix, store := newTestIndexer(t)
	raw := []byte(`{"accNo":"S-BSST2","title":"Secret Study","access":["TEAM_A"],"released":false}`)
	require.NoError(t, ix.IndexOne("c1", raw, nil, store.CommitSubmissionRelated))

	s, err := store.AcquireSearcher(indexstore.Submission)
	require.NoError(t, err)
	defer s.Release()

	results, err := s.Execute(&indexstore.BoolQuery{Must: []indexstore.Clause{indexstore.TermClause{Field: "access", Token: strings.ToLower(PrivilegedAccessToken)}}}, indexstore.SortKey{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "false", results[0].Doc.StoredValues("isPublic")[0])
}

func TestDeleteByAccession(t *testing.T) {
	ix, store := newTestIndexer(t)
	raw := []byte(`{"accNo":"S-BSST3","title":"To be removed","released":true}`)
	require.NoError(t, ix.IndexOne("c1", raw, nil, store.CommitSubmissionRelated))
	require.NoError(t, ix.DeleteByAccession("S-BSST3", store.CommitSubmissionRelated))

	s, err := store.AcquireSearcher(indexstore.Submission)
	require.NoError(t, err)
	defer s.Release()

	results, err := s.Execute(&indexstore.BoolQuery{}, indexstore.SortKey{})
	require.NoError(t, err)
	require.Len(t, results, 0)
}
