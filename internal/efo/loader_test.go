package efo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const diseaseCancerOntology = `[
	{"id":"disease","term":"disease"},
	{"id":"cancer","term":"cancer","parent":"disease","synonyms":["neoplasm"]},
	{"id":"lung-cancer","term":"lung cancer","parent":"cancer"}
]`

func TestLoadFromBytesBuildsGraph(t *testing.T) {
	g, err := LoadFromBytes([]byte(diseaseCancerOntology))
	require.NoError(t, err)

	term, ok := g.Term("cancer")
	require.True(t, ok)
	require.Equal(t, "cancer", term)
	require.Equal(t, []string{"disease"}, g.firstParentChain("cancer"))
	require.Equal(t, []string{"disease", "cancer"}, g.firstParentChain("lung-cancer"))
}

func TestLoadFromBytesRejectsInvalidJSON(t *testing.T) {
	_, err := LoadFromBytes([]byte(`not json`))
	require.Error(t, err)
}

func TestLoadFromBytesWiresAdditionalParents(t *testing.T) {
	data := `[
		{"id":"a","term":"a"},
		{"id":"b","term":"b"},
		{"id":"c","term":"c","parent":"a","additionalParents":["b"]}
	]`
	g, err := LoadFromBytes([]byte(data))
	require.NoError(t, err)

	var parents []string
	g.Walk(func(id, term, efoURI string, altTerms []string, p, c []string, organizational bool) {
		if id == "c" {
			parents = p
		}
	})
	require.ElementsMatch(t, []string{"a", "b"}, parents)
}
