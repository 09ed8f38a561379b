package port

import "cortex/internal/domain"

// DocumentStore owns ingested documents. Retrieval never writes to it.
type DocumentStore interface {
	Put(doc domain.Document) error

	Get(id string) (domain.Document, error)

	Delete(id string) error

	List() ([]domain.Document, error)

	SetIncluded(id string, include bool) error

	Rename(id string, title string) error

	Close() error
}
