package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreprocess_EmptyQueryNoSortDefaultsToReleaseTimeDesc(t *testing.T) {
	plan := Preprocess(Request{Query: ""})
	require.Equal(t, releaseTimeField, plan.SortField)
	require.True(t, plan.Descending)
	require.False(t, plan.Highlight)
}

func TestPreprocess_NonEmptyQueryNoSortDefaultsToRelevanceDesc(t *testing.T) {
	plan := Preprocess(Request{Query: "cancer"})
	require.Equal(t, "", plan.SortField)
	require.True(t, plan.Descending)
	require.True(t, plan.Highlight)
}

func TestPreprocess_ExplicitSortIsRespected(t *testing.T) {
	plan := Preprocess(Request{Query: "cancer", SortSet: true, SortField: "title", Descending: false})
	require.Equal(t, "title", plan.SortField)
	require.False(t, plan.Descending)
}

func TestPreprocess_PageAndPageSizeDefaultsAndClamping(t *testing.T) {
	plan := Preprocess(Request{Page: 0, PageSize: 0})
	require.Equal(t, 1, plan.Page)
	require.Equal(t, 20, plan.PageSize)

	plan = Preprocess(Request{Page: 2, PageSize: 5000})
	require.Equal(t, 2, plan.Page)
	require.Equal(t, 1000, plan.PageSize)
}
