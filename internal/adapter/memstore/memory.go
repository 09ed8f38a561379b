package memstore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"cortex/internal/adapter/store"
	"cortex/internal/domain"
	"cortex/internal/port"
)

// MemoryStore is an in-memory document library with the same contract as
// the bbolt store. The HTTP API tests and `serve --memory` use it.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]domain.Document),
	}
}

func (s *MemoryStore) Put(doc domain.Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("document id is required")
	}
	if doc.AddedAt.IsZero() {
		doc.AddedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *MemoryStore) Get(id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return doc, nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) List() ([]domain.Document, error) {
	s.mu.RLock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	s.mu.RUnlock()

	store.SortDocuments(docs)
	return docs, nil
}

func (s *MemoryStore) SetIncluded(id string, include bool) error {
	return s.update(id, func(doc *domain.Document) {
		doc.IncludeInContext = include
	})
}

func (s *MemoryStore) Rename(id string, title string) error {
	return s.update(id, func(doc *domain.Document) {
		doc.Title = title
	})
}

func (s *MemoryStore) update(id string, fn func(*domain.Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	fn(&doc)
	s.docs[id] = doc
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ port.DocumentStore = (*MemoryStore)(nil)
