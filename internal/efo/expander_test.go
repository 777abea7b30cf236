package efo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

func facetFieldValues(doc *indexstore.Document, name string) []string {
	var out []string
	for _, f := range doc.Fields {
		if f.Name == name && f.Kind == indexstore.FacetField {
			out = append(out, f.Value)
		}
	}
	return out
}

func TestExpanderBuild_DiseaseCancerLungCancer(t *testing.T) {
	exp := NewExpander(nil)

	lungCancer := childInfo{term: "lung cancer"}
	cancer := childInfo{term: "cancer", synonyms: []string{"neoplasm"}}

	diseaseDoc := exp.Build(expansionInput{term: "disease", children: []childInfo{cancer}})
	require.NotNil(t, diseaseDoc)
	require.ElementsMatch(t, []string{"disease", "cancer", "neoplasm"}, facetFieldValues(diseaseDoc, "qe.term"))
	require.ElementsMatch(t, []string{"neoplasm", "cancer"}, facetFieldValues(diseaseDoc, "qe.efo"))

	cancerDoc := exp.Build(expansionInput{term: "cancer", synonyms: []string{"neoplasm"}, children: []childInfo{lungCancer}})
	require.NotNil(t, cancerDoc)
	require.ElementsMatch(t, []string{"cancer", "neoplasm"}, facetFieldValues(cancerDoc, "qe.term"))
	require.ElementsMatch(t, []string{"neoplasm", "lung cancer"}, facetFieldValues(cancerDoc, "qe.efo"))

	lungCancerDoc := exp.Build(expansionInput{term: "lung cancer"})
	require.Nil(t, lungCancerDoc)
}

func TestExpanderBuild_SkipsStopWordNode(t *testing.T) {
	exp := NewExpander([]string{"disease"})
	doc := exp.Build(expansionInput{term: "disease", synonyms: []string{"illness"}})
	require.Nil(t, doc)
}

func TestExpanderBuild_ExcludesQualifiedAndShortSynonyms(t *testing.T) {
	exp := NewExpander(nil)
	doc := exp.Build(expansionInput{term: "cancer", synonyms: []string{"ca", "tumour (NOS)", "oncology term"}})
	require.NotNil(t, doc)
	require.ElementsMatch(t, []string{"cancer", "oncology term"}, facetFieldValues(doc, "qe.term"))
	require.ElementsMatch(t, []string{"oncology term"}, facetFieldValues(doc, "qe.efo"))
}

func TestExpanderBuild_OrganizationalChildExcluded(t *testing.T) {
	exp := NewExpander(nil)
	org := childInfo{term: "organizational group", organizational: true}
	doc := exp.Build(expansionInput{term: "disease", children: []childInfo{org}})
	require.Nil(t, doc)
}

func TestCleanExpansionValue(t *testing.T) {
	require.Equal(t, "lung cancer", cleanExpansionValue("Lung  Cancer!"))
	require.Equal(t, "non-small cell", cleanExpansionValue("Non-Small Cell"))
}
