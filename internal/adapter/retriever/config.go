package retriever

import (
	"cortex/config"
	"cortex/internal/adapter/analyzer"
	"cortex/internal/adapter/chunker"
	"cortex/internal/domain"
)

// NewFromConfig builds a TFIDFRetriever over a window chunker tuned by rc.
func NewFromConfig(rc config.RetrieveConfig) *TFIDFRetriever {
	chk := chunker.NewWindowChunker(
		chunker.WithMaxChars(rc.MaxChunkChars),
		chunker.WithOverlap(rc.OverlapChars),
		chunker.WithMinBreakOffset(rc.MinBreakOffset),
		chunker.WithMinTextChars(rc.MinTextChars),
	)
	return NewTFIDFRetriever(chk, analyzer.NewTokenizer())
}

// ChunkCount returns how many chunks docs produce.
func (r *TFIDFRetriever) ChunkCount(docs []domain.Document) int {
	n := 0
	for _, doc := range docs {
		for range r.chunker.Chunks(doc) {
			n++
		}
	}
	return n
}
