// Package badger implements simplesocial.DocumentStore on an embedded Badger
// database. Documents are stored as JSON under "doc:{collection}:{id}".
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/docstore"
)

const docPrefix = "doc:"

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Disable Badger's internal logging
	opts.SyncWrites = true // Sync writes so a crash cannot lose an acknowledged document
	return open(opts, logger)
}

// OpenInMemory opens a database that lives only in memory.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Badger document store opened", "path", opts.Dir, "in_memory", opts.InMemory)
	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func collectionPrefix(collection string) []byte {
	return []byte(docPrefix + collection + ":")
}

func docKey(collection, id string) []byte {
	return append(collectionPrefix(collection), id...)
}

func (s *Store) CreateDocument(ctx context.Context, collection string, fields simplesocial.Fields) (*simplesocial.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", err)
	}
	id, err := docstore.NewID()
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", err)
	}

	now := docstore.Now()
	doc := &simplesocial.Document{
		ID:         id,
		Collection: collection,
		CreatedAt:  now,
		UpdatedAt:  now,
		Fields:     normalized,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", fmt.Errorf("marshal document: %w", err))
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(collection, id), data)
	})
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", err)
	}
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (*simplesocial.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *simplesocial.Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = getDoc(txn, collection, id)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, docstore.NotFound(collection, "get", id)
		}
		return nil, simplesocial.NewDocumentFault(collection, "get", err)
	}
	return doc, nil
}

// GetDocumentsWhere scans the collection prefix and evaluates q in memory.
func (s *Store) GetDocumentsWhere(ctx context.Context, collection string, q simplesocial.Query) ([]*simplesocial.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []*simplesocial.Document
	prefix := collectionPrefix(collection)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var doc simplesocial.Document
				if err := json.Unmarshal(val, &doc); err != nil {
					return err
				}
				docs = append(docs, &doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "list", err)
	}
	return docstore.Apply(docs, q), nil
}

func (s *Store) UpdateDocument(ctx context.Context, collection, id string, fields simplesocial.Fields) (*simplesocial.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "update", err)
	}

	var updated *simplesocial.Document
	err = s.db.Update(func(txn *badger.Txn) error {
		doc, err := getDoc(txn, collection, id)
		if err != nil {
			return err
		}
		doc.Fields = docstore.Merge(doc.Fields, normalized)
		doc.UpdatedAt = docstore.Now()

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		if err := txn.Set(docKey(collection, id), data); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, docstore.NotFound(collection, "update", id)
		}
		return nil, simplesocial.NewDocumentFault(collection, "update", err)
	}
	return updated, nil
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		key := docKey(collection, id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return docstore.NotFound(collection, "delete", id)
		}
		return simplesocial.NewDocumentFault(collection, "delete", err)
	}
	return nil
}

func getDoc(txn *badger.Txn, collection, id string) (*simplesocial.Document, error) {
	item, err := txn.Get(docKey(collection, id))
	if err != nil {
		return nil, err
	}
	var doc simplesocial.Document
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &doc, nil
}
