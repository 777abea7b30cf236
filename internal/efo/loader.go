package efo

import (
	"encoding/json"
	"os"

	"github.com/ebi-biostudies/biostudies-index/internal/apperrors"
)

// rawTerm mirrors the on-disk ontology wire format: a flat list of terms,
// each naming its primary parent and any additional parents (for DAG
// edges), synonyms, and whether it is an EFO "organizational class"
// (excluded from contributing children to the query expander).
type rawTerm struct {
	ID                   string   `json:"id"`
	Term                 string   `json:"term"`
	URI                  string   `json:"uri"`
	Parent               string   `json:"parent"`
	AdditionalParents    []string `json:"additionalParents"`
	Synonyms             []string `json:"synonyms"`
	OrganizationalClass  bool     `json:"organizationalClass"`
}

// LoadFromFile parses an ontology document from path into a Graph. This
// is the sole external-collaborator boundary named by the ontology
// design: the core only ever depends on the resulting Graph, never on
// the source format.
func LoadFromFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.FatalResourcef(err, "efo: cannot read ontology file %s", path)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses an in-memory ontology document.
func LoadFromBytes(data []byte) (*Graph, error) {
	var terms []rawTerm
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, apperrors.InvalidInputf("efo: invalid ontology JSON: %v", err)
	}

	g := NewGraph()
	// First pass: create every node under its primary parent (or root),
	// in file order, so a term's parent need not already exist verbatim
	// (AddTerm creates a placeholder parent node if missing).
	for _, t := range terms {
		if t.ID == "" {
			continue
		}
		g.AddTerm(t.ID, t.Term, t.URI, t.Parent, t.OrganizationalClass)
	}
	// Second pass: wire additional parent edges and synonyms, now that
	// every node exists.
	for _, t := range terms {
		for _, alt := range t.Synonyms {
			g.AddAltTerm(t.ID, alt)
		}
		for _, extra := range t.AdditionalParents {
			g.AddParentEdge(t.ID, extra)
		}
	}

	return g, nil
}

// Resolver wraps a loaded Graph with the root sentinel, returned by
// LoadEFO for the indexer to consume.
type Resolver struct {
	Graph  *Graph
	RootID string
}

// LoadEFO loads the ontology model and returns a Resolver rooted at the
// synthetic root node.
func LoadEFO(path string) (*Resolver, error) {
	g, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return &Resolver{Graph: g, RootID: RootID}, nil
}
