// Package submission implements the submission indexer: given a fetched
// submission's raw JSON (plus, optionally, its file list), it produces
// documents for the SUBMISSION, FILES and PAGE_TAB indices according to
// the collection registry, derives the EFO facet from aggregated
// content, and replaces any prior version of the same accession
// atomically.
package submission

import (
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ebi-biostudies/biostudies-index/internal/analyzer"
	"github.com/ebi-biostudies/biostudies-index/internal/apperrors"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
	"github.com/ebi-biostudies/biostudies-index/internal/parser"
	"github.com/ebi-biostudies/biostudies-index/internal/registry"
)

// PrivilegedAccessToken is the sole access token attached to a submission
// that has not been released, restricting it to privileged callers.
const PrivilegedAccessToken = "PRIVATE"

// EFOMatcher is the subset of the EFO matcher's API the indexer needs:
// find every known ontology term mentioned in a text blob, and resolve
// the root-to-term ancestor chain for one matched term. Defined here
// (rather than imported from internal/efo) so the indexer and the EFO
// subsystem do not import each other.
type EFOMatcher interface {
	FindTerms(text string) []string
	AncestorPath(term string) []string
}

// FileEntry is one file-list entry as fetched by the (out-of-scope)
// extended file-list HTTP client.
type FileEntry struct {
	FileName    string
	FilePath    string
	RelPath     string
	FullPath    string
	MD5         string
	Size        int64
	Type        string
	IsDirectory bool
}

// Indexer turns fetched submission data into documents across the
// submission-related indices.
type Indexer struct {
	registry  *registry.Registry
	analyzers *analyzer.Catalog
	parsers   *parser.Catalog
	store     *indexstore.Manager
	efo       EFOMatcher
	logger    arbor.ILogger
}

// New builds a submission indexer. efo may be nil during bootstrap,
// before the EFO subsystem has finished its first load; in that case the
// efo facet is simply omitted.
func New(reg *registry.Registry, analyzers *analyzer.Catalog, parsers *parser.Catalog, store *indexstore.Manager, efo EFOMatcher, logger arbor.ILogger) *Indexer {
	return &Indexer{registry: reg, analyzers: analyzers, parsers: parsers, store: store, efo: efo, logger: logger}
}

// SetEFOMatcher installs (or replaces) the EFO matcher used for facet
// derivation, once the EFO subsystem has completed a load/reindex.
func (ix *Indexer) SetEFOMatcher(m EFOMatcher) { ix.efo = m }

func accessionOf(raw []byte) string {
	return strings.TrimSpace(gjson.GetBytes(raw, "accNo").String())
}

// IndexWithoutCommit extracts and stages documents for collection/raw
// into the three submission-related writers, without committing. The
// caller (indexing service batch or explicit index_one) is responsible
// for the commit/refresh step. Deletes precede adds within this call.
func (ix *Indexer) IndexWithoutCommit(collectionName string, raw []byte, files []FileEntry, removeFileDocuments bool) error {
	accession := accessionOf(raw)
	if accession == "" {
		return apperrors.InvalidInputf("submission: missing accession")
	}

	doc, pageTabDoc, err := ix.buildDocuments(collectionName, accession, raw)
	if err != nil {
		return err
	}

	subWriter := ix.store.Writer(indexstore.Submission)
	subWriter.DeleteByAccession(accession)
	subWriter.AddDocument(doc)

	pageTabWriter := ix.store.Writer(indexstore.PageTab)
	pageTabWriter.DeleteByAccession(accession)
	pageTabWriter.AddDocument(pageTabDoc)

	filesWriter := ix.store.Writer(indexstore.Files)
	if removeFileDocuments {
		filesWriter.DeleteByAccession(accession)
	}
	for i, f := range files {
		filesWriter.AddDocument(ix.buildFileDocument(accession, i, f))
	}

	return nil
}

// IndexOne commits the three submission-related writers through the
// caller-supplied commit function (normally the index manager's
// CommitSubmissionRelated, which commits them one after another and is
// not atomic across writers) and then refreshes searchers.
func (ix *Indexer) IndexOne(collectionName string, raw []byte, files []FileEntry, commit func() error) error {
	if err := ix.IndexWithoutCommit(collectionName, raw, files, true); err != nil {
		return err
	}
	if err := commit(); err != nil {
		return err
	}
	ix.store.RefreshAll()
	return nil
}

// DeleteByAccession removes a submission's documents from all three
// submission-related indices (used both for the worker's NOT_FOUND path
// and for direct administrative deletes).
func (ix *Indexer) DeleteByAccession(accession string, commit func() error) error {
	if accession == "" {
		return apperrors.InvalidInputf("submission: missing accession")
	}
	ix.store.Writer(indexstore.Submission).DeleteByAccession(accession)
	ix.store.Writer(indexstore.Files).DeleteByAccession(accession)
	ix.store.Writer(indexstore.PageTab).DeleteByAccession(accession)
	if err := commit(); err != nil {
		return err
	}
	ix.store.RefreshAll()
	return nil
}

func (ix *Indexer) buildDocuments(collectionName, accession string, raw []byte) (*indexstore.Document, *indexstore.Document, error) {
	props := ix.registry.EffectiveProperties(collectionName)

	released := gjson.GetBytes(raw, "released").Bool()

	var fields []indexstore.Field
	var contentTerms []string

	for _, p := range props {
		values, err := ix.parsers.ForProperty(p).Parse(raw, p)
		if err != nil {
			ix.logger.Warn().Err(err).Str("field", p.Name).Str("accession", accession).Msg("parser failed, field skipped")
			continue
		}
		if len(values) == 0 {
			if p.DefaultValue != "" {
				values = []string{p.DefaultValue}
			} else {
				continue
			}
		}

		if p.Name == "access" && !released {
			values = []string{PrivilegedAccessToken}
		}

		field, terms := ix.buildField(p, values)
		fields = append(fields, field)
		if p.FieldType == registry.TokenizedString {
			contentTerms = append(contentTerms, terms...)
		}
	}

	fields = append(fields, indexstore.NewExact("isPublic", boolString(released), true))

	contentText := strings.Join(contentTerms, " ")
	fields = append(fields, indexstore.NewTokenized("content", contentText, ix.analyzers.Default().Analyze(contentText), true))

	if ix.efo != nil {
		for _, term := range ix.efo.FindTerms(contentText) {
			path := strings.Join(append(ix.efo.AncestorPath(term), term), "/")
			fields = append(fields, indexstore.NewFacet("efo", path))
		}
	}

	doc := &indexstore.Document{ID: accession, Accession: accession, Fields: fields}

	pageTabDoc := &indexstore.Document{
		ID:        accession,
		Accession: accession,
		Fields: []indexstore.Field{
			indexstore.NewStored("accession", accession),
			indexstore.NewStored("pagetab", string(raw)),
		},
	}

	return doc, pageTabDoc, nil
}

func (ix *Indexer) buildField(p *registry.PropertyDescriptor, values []string) (indexstore.Field, []string) {
	name := p.Name
	joined := strings.Join(values, " ")

	switch p.FieldType {
	case registry.Long:
		var n int64
		if len(values) > 0 {
			n = parseLongLenient(values[0])
		}
		return indexstore.NewLong(name, n), nil

	case registry.Facet:
		return indexstore.NewFacet(name, joined), nil

	case registry.UntokenizedString:
		return indexstore.NewExact(name, joined, p.Retrieved), nil

	default: // TokenizedString
		tokens := ix.analyzers.ForField(name).Analyze(joined)
		return indexstore.NewTokenized(name, joined, tokens, p.Retrieved), tokens
	}
}

func (ix *Indexer) buildFileDocument(accession string, index int, f FileEntry) *indexstore.Document {
	id := accession + "#files#" + strconv.Itoa(index)
	return &indexstore.Document{
		ID:        id,
		Accession: accession,
		Fields: []indexstore.Field{
			indexstore.NewStored("accession", accession),
			indexstore.NewStored("fileName", f.FileName),
			indexstore.NewStored("filePath", f.FilePath),
			indexstore.NewStored("relPath", f.RelPath),
			indexstore.NewStored("fullPath", f.FullPath),
			indexstore.NewStored("md5", f.MD5),
			indexstore.NewLong("size", f.Size),
			indexstore.NewStored("type", f.Type),
			indexstore.NewExact("isDirectory", boolString(f.IsDirectory), true),
			indexstore.NewExact("extType", parser.ExtType(f.FileName), true),
		},
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// parseLongLenient parses s as a decimal int64, returning 0 for any
// value that isn't a clean integer rather than propagating an error
// (registry-driven fields may carry non-numeric content by mistake).
func parseLongLenient(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

