package usecase

import (
	"strings"
	"unicode/utf8"

	"cortex/internal/adapter/chunker"
	"cortex/internal/domain"
	"cortex/internal/logger"
	"cortex/internal/port"
)

// RetrieveUseCase is the retrieval entry point for every consumer. It keeps
// only eligible documents and ranks their chunks against the query.
type RetrieveUseCase struct {
	retriever    port.Retriever
	minTextChars int
}

// NewRetrieveUseCase creates a new retrieve use case. minTextChars <= 0
// uses chunker.DefaultMinTextChars.
func NewRetrieveUseCase(retriever port.Retriever, minTextChars int) *RetrieveUseCase {
	if minTextChars <= 0 {
		minTextChars = chunker.DefaultMinTextChars
	}
	return &RetrieveUseCase{
		retriever:    retriever,
		minTextChars: minTextChars,
	}
}

// Search returns at most max(1, maxHits) hits, best first. It never fails:
// no match is an empty, non-nil slice.
func (u *RetrieveUseCase) Search(query string, docs []domain.Document, maxHits int) []domain.Hit {
	eligible := u.EligibleDocuments(docs)
	if strings.TrimSpace(query) == "" || len(eligible) == 0 {
		logger.Debug("search skipped: %d of %d documents eligible", len(eligible), len(docs))
		return []domain.Hit{}
	}

	hits := u.retriever.Search(query, eligible, maxHits)
	if hits == nil {
		hits = []domain.Hit{}
	}
	logger.Debug("search %q: %d hits from %d documents", query, len(hits), len(eligible))
	return hits
}

// Eligible reports whether doc takes part in retrieval: processed, included
// in context and carrying enough non-blank text.
func (u *RetrieveUseCase) Eligible(doc domain.Document) bool {
	if !doc.Processed || !doc.IncludeInContext {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(doc.Text)) >= u.minTextChars
}

// EligibleDocuments filters docs, keeping their order.
func (u *RetrieveUseCase) EligibleDocuments(docs []domain.Document) []domain.Document {
	eligible := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if u.Eligible(doc) {
			eligible = append(eligible, doc)
		}
	}
	return eligible
}
