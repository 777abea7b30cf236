package efo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddTermDefaultsToRoot(t *testing.T) {
	g := NewGraph()
	g.AddTerm("t1", "disease", "", "", false)

	var parents []string
	g.Walk(func(id, term, efoURI string, altTerms []string, p, c []string, organizational bool) {
		if id == "t1" {
			parents = p
		}
	})
	require.Equal(t, []string{RootID}, parents)
}

func TestWalkVisitsEachNodeOnce(t *testing.T) {
	g := NewGraph()
	g.AddTerm("disease", "disease", "", "", false)
	g.AddTerm("cancer", "cancer", "", "disease", false)
	g.AddTerm("lung-cancer", "lung cancer", "", "cancer", false)
	g.AddParentEdge("lung-cancer", "disease") // extra DAG edge, still visited once

	count := 0
	g.Walk(func(id, term, efoURI string, altTerms []string, parents, children []string, organizational bool) {
		count++
	})
	require.Equal(t, 4, count) // root + 3 terms
}

func TestFirstParentChainFollowsFirstRecordedParent(t *testing.T) {
	g := NewGraph()
	g.AddTerm("disease", "disease", "", "", false)
	g.AddTerm("cancer", "cancer", "", "disease", false)
	g.AddTerm("lung-cancer", "lung cancer", "", "cancer", false)
	g.AddParentEdge("lung-cancer", "disease")

	require.Equal(t, []string{"disease"}, g.firstParentChain("cancer"))
	require.Equal(t, []string{"disease", "cancer"}, g.firstParentChain("lung-cancer"))
}

func TestAddAltTerm(t *testing.T) {
	g := NewGraph()
	g.AddTerm("cancer", "cancer", "", "", false)
	g.AddAltTerm("cancer", "neoplasm")

	var alts []string
	g.Walk(func(id, term, efoURI string, altTerms []string, parents, children []string, organizational bool) {
		if id == "cancer" {
			alts = altTerms
		}
	})
	require.Equal(t, []string{"neoplasm"}, alts)
}
