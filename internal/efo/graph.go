// Package efo implements the Experimental Factor Ontology subsystem: an
// in-memory ontology graph, the indexer that materializes it (plus
// submission-content-derived synonyms) into the EFO index, the query
// expander that emits broader-term expansion documents, and the
// in-memory term matcher used by the submission indexer and the
// autocomplete/taxonomy query paths.
package efo

import "strings"

// RootID is the sentinel id of the ontology's synthetic root node.
const RootID = "efo-root"

// node is one ontology term. Parents and children are stored as stable
// indices into the owning Graph's nodes slice (an arena), not as owning
// pointers, so the graph can be a DAG without shared-mutability headaches
// and without needing reference counting or cycle detection on free.
type node struct {
	id                   string
	term                 string
	efoURI               string
	parents              []int
	children             []int
	altTerms             []string
	isOrganizationalClass bool
}

// Graph is the arena of ontology nodes plus an id -> index lookup.
type Graph struct {
	nodes  []node
	byID   map[string]int
	rootID string
}

// NewGraph creates an empty graph with only the synthetic root node.
func NewGraph() *Graph {
	g := &Graph{byID: make(map[string]int), rootID: RootID}
	g.addNode(RootID, "root", "", false)
	return g
}

func (g *Graph) addNode(id, term, uri string, organizational bool) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, node{id: id, term: term, efoURI: uri, isOrganizationalClass: organizational})
	g.byID[id] = idx
	return idx
}

// AddTerm inserts (or returns the existing index of) a term node with a
// single parent edge from parentID, creating parentID as a root child if
// it is not yet present.
func (g *Graph) AddTerm(id, term, uri string, parentID string, organizational bool) int {
	if idx, ok := g.byID[id]; ok {
		return idx
	}
	if parentID == "" {
		parentID = g.rootID
	}
	parentIdx, ok := g.byID[parentID]
	if !ok {
		parentIdx = g.addNode(parentID, parentID, "", false)
		rootIdx := g.byID[g.rootID]
		g.nodes[parentIdx].parents = append(g.nodes[parentIdx].parents, rootIdx)
		g.nodes[rootIdx].children = append(g.nodes[rootIdx].children, parentIdx)
	}
	idx := g.addNode(id, term, uri, organizational)
	g.nodes[idx].parents = append(g.nodes[idx].parents, parentIdx)
	g.nodes[parentIdx].children = append(g.nodes[parentIdx].children, idx)
	return idx
}

// AddAltTerm appends a synonym to an existing node.
func (g *Graph) AddAltTerm(id, altTerm string) {
	if idx, ok := g.byID[id]; ok {
		g.nodes[idx].altTerms = append(g.nodes[idx].altTerms, altTerm)
	}
}

// AddParentEdge records an additional parent relationship, making the
// graph a DAG rather than a strict tree. Ancestor computation (see
// Resolver.AncestorPath) always takes the first parent recorded.
func (g *Graph) AddParentEdge(id, parentID string) {
	idx, ok := g.byID[id]
	if !ok {
		return
	}
	parentIdx, ok := g.byID[parentID]
	if !ok {
		return
	}
	g.nodes[idx].parents = append(g.nodes[idx].parents, parentIdx)
	g.nodes[parentIdx].children = append(g.nodes[parentIdx].children, idx)
}

// Walk visits every node reachable from the root in depth-first order,
// each node visited exactly once regardless of how many parents reach it.
func (g *Graph) Walk(visit func(id, term, efoURI string, altTerms []string, parents, children []string, organizational bool)) {
	visited := make(map[int]bool)
	var dfs func(idx int)
	dfs = func(idx int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		n := g.nodes[idx]
		visit(n.id, n.term, n.efoURI, n.altTerms, g.idsOf(n.parents), g.idsOf(n.children), n.isOrganizationalClass)
		for _, c := range n.children {
			dfs(c)
		}
	}
	dfs(g.byID[g.rootID])
}

func (g *Graph) idsOf(indices []int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = g.nodes[idx].id
	}
	return out
}

// firstParentChain returns the root-to-parent chain (exclusive of the
// node itself, exclusive of the synthetic root) by repeatedly following
// the first recorded parent.
func (g *Graph) firstParentChain(id string) []string {
	idx, ok := g.byID[id]
	if !ok {
		return nil
	}
	var chain []string
	for {
		n := g.nodes[idx]
		if len(n.parents) == 0 {
			break
		}
		parentIdx := n.parents[0]
		parentID := g.nodes[parentIdx].id
		if parentID == g.rootID {
			break
		}
		chain = append([]string{g.nodes[parentIdx].term}, chain...)
		idx = parentIdx
	}
	return chain
}

// Term returns the display term for an id, and whether it exists.
func (g *Graph) Term(id string) (string, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return "", false
	}
	return g.nodes[idx].term, true
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
