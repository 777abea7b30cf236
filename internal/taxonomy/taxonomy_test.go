package taxonomy

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebi-biostudies/biostudies-index/internal/common"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

func seedFacetDoc(t *testing.T, w *indexstore.Writer, id, path string) {
	t.Helper()
	w.AddDocument(&indexstore.Document{ID: id, Fields: []indexstore.Field{indexstore.NewFacet(Field, path)}})
}

func TestGetChildren_MaxAggregationAlphabeticalOrder(t *testing.T) {
	store, err := indexstore.Open(t.TempDir(), common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.CloseAll() })

	w := store.Writer(indexstore.Submission)
	for i := 0; i < 5; i++ {
		seedFacetDoc(t, w, "a"+strconv.Itoa(i), "ef/cell type")
	}
	for i := 0; i < 3; i++ {
		seedFacetDoc(t, w, "b"+strconv.Itoa(i), "ef/sample/cell type")
	}
	for i := 0; i < 2; i++ {
		seedFacetDoc(t, w, "c"+strconv.Itoa(i), "ef/cell type/t cell")
	}
	for i := 0; i < 4; i++ {
		seedFacetDoc(t, w, "d"+strconv.Itoa(i), "ef/cell type/b cell")
	}
	require.NoError(t, w.Commit())
	store.RefreshAll()

	tx := New(store, nil)
	rows := tx.GetChildren("cell type", 10)
	require.Len(t, rows, 2)
	require.Equal(t, "b cell", rows[0].Term)
	require.Equal(t, 4, rows[0].Count)
	require.False(t, rows[0].HasChildren)
	require.Equal(t, "t cell", rows[1].Term)
	require.Equal(t, 2, rows[1].Count)
}

func TestSearchAllDepths_SumsAcrossPaths(t *testing.T) {
	store, err := indexstore.Open(t.TempDir(), common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.CloseAll() })

	w := store.Writer(indexstore.Submission)
	seedFacetDoc(t, w, "a0", "ef/cell type")
	seedFacetDoc(t, w, "a1", "ef/sample/cell type")
	require.NoError(t, w.Commit())
	store.RefreshAll()

	tx := New(store, nil)
	rows := tx.SearchAllDepths("cell", 10)
	require.Len(t, rows, 1)
	require.Equal(t, "cell type", rows[0].Term)
	require.Equal(t, 2, rows[0].Count)
}

func TestGetChildren_NeverReturnsParentItself(t *testing.T) {
	store, err := indexstore.Open(t.TempDir(), common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.CloseAll() })

	w := store.Writer(indexstore.Submission)
	seedFacetDoc(t, w, "a0", "ef/cell type")
	seedFacetDoc(t, w, "a1", "ef/cell type/t cell")
	require.NoError(t, w.Commit())
	store.RefreshAll()

	tx := New(store, nil)
	rows := tx.GetChildren("cell type", 10)
	for _, r := range rows {
		require.NotEqual(t, "cell type", r.Term)
	}
}
