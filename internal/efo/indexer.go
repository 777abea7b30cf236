package efo

import (
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

const (
	minAugmentedTermLength = 4
	minAugmentedDocFreq    = 10
)

// Indexer materializes a Resolver's Graph into the EFO index: node
// documents, standalone alt_term documents (plus submission-content
// augmented alt_terms), and query-expansion documents.
type Indexer struct {
	store  *indexstore.Manager
	expand *Expander
	logger arbor.ILogger
}

// NewIndexer builds an EFO indexer using the default (empty) stop-word
// set; callers with a configured stop-word list should use
// NewIndexerWithStopwords.
func NewIndexer(store *indexstore.Manager, logger arbor.ILogger) *Indexer {
	return &Indexer{store: store, expand: NewExpander(nil), logger: logger}
}

// NewIndexerWithStopwords builds an EFO indexer whose expansion stage
// skips nodes whose term is a configured stop word.
func NewIndexerWithStopwords(store *indexstore.Manager, stopwords []string, logger arbor.ILogger) *Indexer {
	return &Indexer{store: store, expand: NewExpander(stopwords), logger: logger}
}

// IndexEFO rebuilds the whole EFO index from resolver: delete-all, emit
// node/alt_term documents, harvest submission-content augmented
// alt_terms, emit expansion documents, commit, refresh.
func (ix *Indexer) IndexEFO(resolver *Resolver) error {
	writer := ix.store.Writer(indexstore.EFO)
	writer.TruncateAll()

	seenTerms := make(map[string]bool)
	var expansionInputs []expansionInput

	// childOf gathers, for every node, its own (term, synonyms,
	// organizational) tuple so each parent's expansion input can carry
	// full child representations rather than bare child terms.
	childOf := make(map[string]childInfo)
	resolver.Graph.Walk(func(id, term, efoURI string, altTerms []string, parents, children []string, organizational bool) {
		childOf[id] = childInfo{term: term, synonyms: altTerms, organizational: organizational}
	})

	resolver.Graph.Walk(func(id, term, efoURI string, altTerms []string, parents, children []string, organizational bool) {
		if id == resolver.RootID {
			return
		}
		lower := normalizeTerm(term)
		if !seenTerms[lower] {
			seenTerms[lower] = true
			writer.AddDocument(nodeDocument(id, term, efoURI, parents, children))
		}
		for i, alt := range altTerms {
			writer.AddDocument(altTermDocument(id, alt, i))
			seenTerms[normalizeTerm(alt)] = true
		}

		var kids []childInfo
		for _, cid := range children {
			if c, ok := childOf[cid]; ok && !c.organizational {
				kids = append(kids, c)
			}
		}
		expansionInputs = append(expansionInputs, expansionInput{term: term, synonyms: altTerms, children: kids})
	})

	if err := ix.harvestAugmentedAltTerms(writer, seenTerms); err != nil {
		return err
	}

	for _, in := range expansionInputs {
		if doc := ix.expand.Build(in); doc != nil {
			writer.AddDocument(doc)
		}
	}

	if err := writer.Commit(); err != nil {
		return err
	}
	ix.store.RefreshAll()
	return nil
}

// harvestAugmentedAltTerms acquires a SUBMISSION searcher, scans every
// distinct token of the content field, and adds an augmented alt_term
// document for each token satisfying the frequency/length gate and not
// already present as a term or alt_term. The searcher is always
// released, even on error.
func (ix *Indexer) harvestAugmentedAltTerms(writer *indexstore.Writer, seenTerms map[string]bool) error {
	searcher, err := ix.store.AcquireSearcher(indexstore.Submission)
	if err != nil {
		return err
	}
	defer searcher.Release()

	searcher.IterateTerms("content", func(token string) {
		if len(token) < minAugmentedTermLength {
			return
		}
		if seenTerms[token] {
			return
		}
		if searcher.DocFreq("content", token) < minAugmentedDocFreq {
			return
		}
		seenTerms[token] = true
		writer.AddDocument(augmentedAltTermDocument(token))
	})

	return nil
}

func nodeDocument(id, term, efoURI string, parents, children []string) *indexstore.Document {
	fields := []indexstore.Field{
		indexstore.NewExact("docType", "node", true),
		indexstore.NewExact("id", id, true),
		indexstore.NewExact("efo_id", strings.ToLower(id), true),
		indexstore.NewTokenized("term", term, []string{normalizeTerm(term)}, true),
		indexstore.NewExact("efo_uri", efoURI, true),
	}
	for _, p := range parents {
		fields = append(fields, indexstore.NewExact("parent", p, true))
	}
	for _, c := range children {
		fields = append(fields, indexstore.NewExact("child", c, true))
	}
	return &indexstore.Document{ID: "node:" + id, Fields: fields}
}

func altTermDocument(nodeID, altTerm string, index int) *indexstore.Document {
	return &indexstore.Document{
		ID: "alt:" + nodeID + "#" + strconv.Itoa(index),
		Fields: []indexstore.Field{
			indexstore.NewExact("docType", "alt_term", true),
			indexstore.NewExact("id", nodeID, true),
			indexstore.NewExact("efo_id", strings.ToLower(nodeID), true),
			indexstore.NewTokenized("term", altTerm, []string{normalizeTerm(altTerm)}, true),
		},
	}
}

func augmentedAltTermDocument(token string) *indexstore.Document {
	return &indexstore.Document{
		ID: "augmented:" + token,
		Fields: []indexstore.Field{
			indexstore.NewExact("docType", "alt_term", true),
			indexstore.NewTokenized("term", token, []string{token}, true),
		},
	}
}
