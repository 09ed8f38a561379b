package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"cortex/internal/domain"
	"cortex/internal/port"
)

var (
	bucketDocs  = []byte("docs")
	bucketTexts = []byte("texts")
	bucketMeta  = []byte("meta")
)

// BoltStore is a bbolt-backed document library. Metadata and extracted text
// live in separate buckets so listings do not decode full texts twice.
type BoltStore struct {
	db *bbolt.DB
}

var _ port.DocumentStore = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketTexts, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

type docMeta struct {
	Title            string              `json:"title"`
	Path             string              `json:"path,omitempty"`
	Type             domain.DocumentType `json:"type"`
	Processed        bool                `json:"processed"`
	IncludeInContext bool                `json:"include_in_context"`
	AddedAt          int64               `json:"added_at"`
}

func (m docMeta) document(id, text string) domain.Document {
	return domain.Document{
		ID:               id,
		Title:            m.Title,
		Path:             m.Path,
		Type:             m.Type,
		Text:             text,
		Processed:        m.Processed,
		IncludeInContext: m.IncludeInContext,
		AddedAt:          time.Unix(0, m.AddedAt).UTC(),
	}
}

func (s *BoltStore) Put(doc domain.Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("document id is required")
	}
	if doc.AddedAt.IsZero() {
		doc.AddedAt = time.Now()
	}

	meta := docMeta{
		Title:            doc.Title,
		Path:             doc.Path,
		Type:             doc.Type,
		Processed:        doc.Processed,
		IncludeInContext: doc.IncludeInContext,
		AddedAt:          doc.AddedAt.UnixNano(),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDocs).Put([]byte(doc.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketTexts).Put([]byte(doc.ID), []byte(doc.Text))
	})
}

func (s *BoltStore) Get(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = meta.document(id, string(tx.Bucket(bucketTexts).Get([]byte(id))))
		return nil
	})
	return doc, err
}

func (s *BoltStore) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketDocs).Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		if err := tx.Bucket(bucketDocs).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(bucketTexts).Delete([]byte(id))
	})
}

// List returns every document ordered by added time, then id.
func (s *BoltStore) List() ([]domain.Document, error) {
	docs := []domain.Document{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		texts := tx.Bucket(bucketTexts)
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("decoding document %s: %w", k, err)
			}
			docs = append(docs, meta.document(string(k), string(texts.Get(k))))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	SortDocuments(docs)
	return docs, nil
}

func (s *BoltStore) SetIncluded(id string, include bool) error {
	return s.updateMeta(id, func(m *docMeta) {
		m.IncludeInContext = include
	})
}

func (s *BoltStore) Rename(id string, title string) error {
	return s.updateMeta(id, func(m *docMeta) {
		m.Title = title
	})
}

func (s *BoltStore) updateMeta(id string, fn func(*docMeta)) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocs)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		fn(&meta)
		updated, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), updated)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SortDocuments orders documents by added time, then id.
func SortDocuments(docs []domain.Document) {
	slices.SortStableFunc(docs, func(a, b domain.Document) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
