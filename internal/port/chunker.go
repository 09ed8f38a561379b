package port

import (
	"iter"

	"cortex/internal/domain"
)

type Chunker interface {
	Chunk(doc domain.Document) ([]domain.Chunk, error)

	// Chunks yields the chunks of doc in index order.
	Chunks(doc domain.Document) iter.Seq[domain.Chunk]
}
