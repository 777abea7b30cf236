package indexstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ebi-biostudies/biostudies-index/internal/apperrors"
)

// MinStaleness and MaxStaleness bound the near-real-time reopen worker:
// it checks for committed writes every MaxStaleness, so they become
// visible to new searchers no later than MaxStaleness after commit, and
// it reopens an index at most once per MinStaleness. RefreshAll reopens
// immediately, outside this window.
const (
	MinStaleness = 100 * time.Millisecond
	MaxStaleness = 5 * time.Second
)

// index is one logical index's directory, writer and generation state.
type index struct {
	name   IndexName
	db     *badger.DB
	writer *Writer

	mu         sync.Mutex
	current    *badger.Txn
	refCount   int64
	generation uint64
	dirty      atomic.Bool
}

// Manager owns the four logical indices, their writers, and one reopen
// worker per index bounding searcher staleness.
type Manager struct {
	logger  arbor.ILogger
	indices map[IndexName]*index
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Open opens (or creates) all four index directories under baseDir and
// starts a reopen worker per index. Directory-open failures are fatal
// for the named index (FatalResource).
func Open(baseDir string, logger arbor.ILogger) (*Manager, error) {
	m := &Manager{
		logger:  logger,
		indices: make(map[IndexName]*index),
		stopCh:  make(chan struct{}),
	}

	for _, name := range []IndexName{Submission, Files, PageTab, EFO} {
		idx, err := openIndex(name, filepath.Join(baseDir, string(name)))
		if err != nil {
			return nil, apperrors.FatalResourcef(err, "indexstore: failed to open index %q", name)
		}
		m.indices[name] = idx
	}

	for name := range m.indices {
		m.startReopenWorker(name)
	}

	logger.Info().Str("base_dir", baseDir).Msg("index manager opened all indices")
	return m, nil
}

func openIndex(name IndexName, dir string) (*index, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	idx := &index{name: name, db: db}
	idx.writer = &Writer{db: db, idx: idx}
	idx.current = db.NewTransaction(false)
	return idx, nil
}

// startReopenWorker runs a daemon goroutine that periodically swaps in a
// fresh read snapshot whenever the index has pending writes, at a pace
// governed by a rate limiter clamped to [MinStaleness, MaxStaleness].
func (m *Manager) startReopenWorker(name IndexName) {
	idx := m.indices[name]
	limiter := rate.NewLimiter(rate.Every(MinStaleness), 1)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(MaxStaleness)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.reopenIfDirty(idx, limiter)
			}
		}
	}()
}

func (m *Manager) reopenIfDirty(idx *index, limiter *rate.Limiter) {
	if !idx.dirty.Load() {
		return
	}
	if !limiter.Allow() {
		return
	}
	idx.reopen()
	idx.dirty.Store(false)
}

// reopen installs a fresh read transaction as the current snapshot,
// deferring discard of the previous snapshot until its ref count reaches
// zero.
func (idx *index) reopen() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old := idx.current
	oldCount := idx.refCount

	idx.current = idx.db.NewTransaction(false)
	idx.refCount = 0
	idx.generation++

	if oldCount == 0 {
		old.Discard()
	}
	// else: released by the last Searcher.Release() call referencing it
}

// Writer returns the writer for the named index.
func (m *Manager) Writer(name IndexName) *Writer {
	return m.indices[name].writer
}

// Searcher is a ref-counted handle onto one index's current read
// snapshot. Must be released exactly once.
type Searcher struct {
	idx *index
	txn *badger.Txn
}

// AcquireSearcher returns a ref-counted searcher over the named index's
// current snapshot. Must be paired with Release.
func (m *Manager) AcquireSearcher(name IndexName) (*Searcher, error) {
	idx, ok := m.indices[name]
	if !ok {
		return nil, apperrors.InvalidInputf("indexstore: unknown index %q", name)
	}
	idx.mu.Lock()
	idx.refCount++
	txn := idx.current
	idx.mu.Unlock()
	return &Searcher{idx: idx, txn: txn}, nil
}

// Release returns the searcher's reference. A released searcher must not
// be used again.
func (s *Searcher) Release() {
	idx := s.idx
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.refCount > 0 {
		idx.refCount--
	}
	if s.txn != idx.current && idx.refCount == 0 {
		s.txn.Discard()
	}
}

func (s *Searcher) loadDocument(id string) (*Document, error) {
	item, err := s.txn.Get(docKey(id))
	if err != nil {
		return nil, err
	}
	var doc Document
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocument loads one document by id for callers that already know the
// id (e.g. page-tab exact retrieval by accession).
func (s *Searcher) GetDocument(id string) (*Document, error) {
	return s.loadDocument(id)
}

// DocFreq exposes posting-list cardinality for field/token on this
// searcher's snapshot.
func (s *Searcher) DocFreq(field, token string) int {
	return DocFreq(s.txn, field, token)
}

// IterateFacetPostings calls fn once for every (path, document id)
// posting stored under field in this searcher's snapshot. A path shared
// by several documents is reported once per document; deduplicating
// paths is the caller's responsibility.
func (s *Searcher) IterateFacetPostings(field string, fn func(path, id string)) {
	it := s.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := facetFieldPrefix(field)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		fn(facetPathFromKey(key, field), idFromKey(key))
	}
}

// IterateTerms calls fn for every distinct token posted in field across
// the whole index (used by the EFO augmented alt_term harvest, which
// needs doc-freq per candidate token).
func (s *Searcher) IterateTerms(field string, fn func(token string)) {
	it := s.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := fieldTermPrefix(field)
	seen := make(map[string]bool)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := string(it.Item().KeyCopy(nil))
		rest := key[len(prefix):]
		// rest is "<token>!<id>"; find the last separator to strip the id.
		idx := lastSep(rest)
		if idx < 0 {
			continue
		}
		token := rest[:idx]
		if !seen[token] {
			seen[token] = true
			fn(token)
		}
	}
}

// IterateExactValues calls fn for every distinct value posted as an
// exact (untokenized) field, field across the whole index (used by the
// spell-check cascade's accession-field suggestion level, since
// accession is indexed as an exact field rather than tokenized).
func (s *Searcher) IterateExactValues(field string, fn func(value string)) {
	it := s.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := fieldExactPrefix(field)
	seen := make(map[string]bool)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := string(it.Item().KeyCopy(nil))
		rest := key[len(prefix):]
		idx := lastSep(rest)
		if idx < 0 {
			continue
		}
		value := rest[:idx]
		if !seen[value] {
			seen[value] = true
			fn(value)
		}
	}
}

func lastSep(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '!' {
			return i
		}
	}
	return -1
}

// RefreshAll best-effort reopens every index's snapshot immediately,
// regardless of the staleness ticker. Failures are logged and skipped,
// never propagated.
func (m *Manager) RefreshAll() {
	for name, idx := range m.indices {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Warn().Str("index", string(name)).Interface("panic", r).Msg("refresh failed, skipped")
				}
			}()
			idx.reopen()
			idx.dirty.Store(false)
		}()
	}
}

// CommitSubmissionRelated commits the SUBMISSION, FILES and PAGE_TAB
// writers in that fixed order. Commits are not cross-writer atomic: a
// failing commit aborts the batch, leaving partial state visible only on
// next restart.
func (m *Manager) CommitSubmissionRelated() error {
	for _, name := range All {
		idx := m.indices[name]
		if err := idx.writer.Commit(); err != nil {
			return apperrors.FatalResourcef(err, "indexstore: commit failed for index %q", name)
		}
		idx.dirty.Store(true)
	}
	return nil
}

// CloseAll stops reopen workers, then closes every index's database.
// Order: workers first, then databases, mirroring the teardown sequence
// of a stop-then-close lifecycle.
func (m *Manager) CloseAll() error {
	close(m.stopCh)
	m.wg.Wait()

	var firstErr error
	for name, idx := range m.indices {
		idx.mu.Lock()
		if idx.current != nil {
			idx.current.Discard()
		}
		idx.mu.Unlock()
		if err := idx.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("indexstore: failed to close index %q: %w", name, err)
		}
	}
	return firstErr
}
