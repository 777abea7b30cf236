package indexstore

import (
	"encoding/json"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Writer stages mutations against one index and flushes them atomically
// on Commit. Multiple concurrent stagers are serialized by the writer's
// own mutex; callers must not share a writer across a commit boundary
// except through the transaction manager.
type Writer struct {
	db  *badger.DB
	idx *index

	mu      sync.Mutex
	pending []func(txn *badger.Txn) error
}

func (w *Writer) stage(fn func(txn *badger.Txn) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, fn)
}

// AddDocument stages an add of doc, writing its stored record plus every
// postings entry implied by its fields.
func (w *Writer) AddDocument(doc *Document) {
	w.stage(func(txn *badger.Txn) error {
		return putDocument(txn, doc)
	})
}

func putDocument(txn *badger.Txn, doc *Document) error {
	blob, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := txn.Set(docKey(doc.ID), blob); err != nil {
		return err
	}
	for _, f := range doc.Fields {
		switch f.Kind {
		case TokenizedField:
			for _, tok := range f.Tokens {
				if tok == "" {
					continue
				}
				if err := txn.Set(termKey(f.Name, tok, doc.ID), nil); err != nil {
					return err
				}
			}
		case ExactField:
			if f.Value != "" {
				if err := txn.Set(exactKey(f.Name, f.Value, doc.ID), nil); err != nil {
					return err
				}
			}
		case FacetField:
			if f.Value != "" {
				if err := txn.Set(facetKey(f.Name, f.Value, doc.ID), nil); err != nil {
					return err
				}
			}
		}
	}
	if doc.Accession != "" {
		if err := txn.Set(accessionKey(doc.Accession, doc.ID), nil); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByAccession stages a delete of every document (and its postings)
// previously indexed under accession. Deletes are staged to run before
// any adds staged afterward on the same writer, since pending mutations
// apply in stage order.
func (w *Writer) DeleteByAccession(accession string) {
	w.stage(func(txn *badger.Txn) error {
		return deleteByAccession(txn, accession)
	})
}

func deleteByAccession(txn *badger.Txn, accession string) error {
	var ids []string
	prefix := accessionPrefix(accession)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, idFromKey(it.Item().KeyCopy(nil)))
	}
	it.Close()

	for _, id := range ids {
		if err := deleteDocument(txn, id, accession); err != nil {
			return err
		}
	}
	return nil
}

func deleteDocument(txn *badger.Txn, id, accession string) error {
	item, err := txn.Get(docKey(id))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	var doc Document
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &doc) }); err != nil {
		return err
	}

	for _, f := range doc.Fields {
		switch f.Kind {
		case TokenizedField:
			for _, tok := range f.Tokens {
				txn.Delete(termKey(f.Name, tok, id))
			}
		case ExactField:
			if f.Value != "" {
				txn.Delete(exactKey(f.Name, f.Value, id))
			}
		case FacetField:
			if f.Value != "" {
				txn.Delete(facetKey(f.Name, f.Value, id))
			}
		}
	}
	if accession != "" {
		txn.Delete(accessionKey(accession, id))
	}
	return txn.Delete(docKey(id))
}

// TruncateAll stages a delete of every key in the index (used by the EFO
// indexer to rebuild its index from scratch).
func (w *Writer) TruncateAll() {
	w.stage(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{})
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Commit flushes every staged mutation in a single Badger transaction. A
// failing commit leaves the writer's pending queue cleared (the batch is
// abandoned, matching the "no cross-writer atomicity" contract).
func (w *Writer) Commit() error {
	w.mu.Lock()
	ops := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	err := w.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			if err := op(txn); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		w.idx.dirty.Store(true)
	}
	return err
}

// Rollback discards every currently staged, uncommitted mutation. This is
// advisory: it cannot undo a prior successful Commit.
func (w *Writer) Rollback() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = nil
}
