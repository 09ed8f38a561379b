package port

import "cortex/internal/domain"

// Retriever ranks passages from the supplied documents against a query.
type Retriever interface {
	// Search returns at most max(1, maxHits) hits, best first. It never fails;
	// no match is an empty result.
	Search(query string, docs []domain.Document, maxHits int) []domain.Hit
}
