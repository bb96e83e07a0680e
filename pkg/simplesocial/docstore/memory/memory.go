package memory

import (
	"context"
	"sync"

	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/docstore"
)

// Store implements simplesocial.DocumentStore using in-memory storage
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*simplesocial.Document
}

// New creates a new in-memory document store
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]*simplesocial.Document),
	}
}

func (s *Store) CreateDocument(ctx context.Context, collection string, fields simplesocial.Fields) (*simplesocial.Document, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]*simplesocial.Document)
		s.collections[collection] = docs
	}
	docs[id] = doc

	return clone(doc), nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (*simplesocial.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, docstore.NotFound(collection, "get", id)
	}
	return clone(doc), nil
}

func (s *Store) GetDocumentsWhere(ctx context.Context, collection string, q simplesocial.Query) ([]*simplesocial.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*simplesocial.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		all = append(all, doc)
	}

	matched := docstore.Apply(all, q)
	out := make([]*simplesocial.Document, 0, len(matched))
	for _, doc := range matched {
		out = append(out, clone(doc))
	}
	return out, nil
}

func (s *Store) UpdateDocument(ctx context.Context, collection, id string, fields simplesocial.Fields) (*simplesocial.Document, error) {
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "update", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, docstore.NotFound(collection, "update", id)
	}

	updated := *doc
	updated.Fields = docstore.Merge(doc.Fields, normalized)
	updated.UpdatedAt = docstore.Now()
	s.collections[collection][id] = &updated

	return clone(&updated), nil
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return docstore.NotFound(collection, "delete", id)
	}
	delete(s.collections[collection], id)
	return nil
}

// Len returns the number of documents in collection.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// clone returns a copy of doc that callers may modify freely. Stored fields
// are already normalized, so re-normalizing cannot fail.
func clone(doc *simplesocial.Document) *simplesocial.Document {
	out := *doc
	fields, err := docstore.Normalize(doc.Fields)
	if err != nil {
		fields = docstore.Merge(nil, doc.Fields)
	}
	out.Fields = fields
	return &out
}
