package retriever

import (
	"math"
	"sort"
	"strings"

	"cortex/internal/domain"
	"cortex/internal/port"
)

// TFIDFRetriever scores passages with a smoothed TF-IDF over the chunks of the
// supplied documents. Nothing is cached between calls, so it is safe for
// concurrent use as long as the documents are not mutated during a call.
type TFIDFRetriever struct {
	chunker   port.Chunker
	tokenizer port.Tokenizer
}

var _ port.Retriever = (*TFIDFRetriever)(nil)

func NewTFIDFRetriever(chunker port.Chunker, tokenizer port.Tokenizer) *TFIDFRetriever {
	return &TFIDFRetriever{
		chunker:   chunker,
		tokenizer: tokenizer,
	}
}

// chunkProfile is a chunk's stopword-filtered token count and the
// frequencies of the query terms it contains.
type chunkProfile struct {
	total int
	tf    map[string]int
}

type scoredChunk struct {
	chunk domain.Chunk
	score float64
	title string
}

// Search ranks the chunks of docs against query and returns the best
// max(1, maxHits) of them with 1-based ranks.
func (r *TFIDFRetriever) Search(query string, docs []domain.Document, maxHits int) []domain.Hit {
	hits := []domain.Hit{}
	if strings.TrimSpace(query) == "" || len(docs) == 0 {
		return hits
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		for chunk := range r.chunker.Chunks(doc) {
			chunks = append(chunks, chunk)
		}
	}
	if len(chunks) == 0 {
		return hits
	}

	queryTerms := r.QueryTerms(query)
	if len(queryTerms) == 0 {
		return hits
	}
	querySet := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		querySet[term] = struct{}{}
	}

	profiles := make([]chunkProfile, len(chunks))
	df := make(map[string]int, len(queryTerms))
	for i, chunk := range chunks {
		p := chunkProfile{tf: make(map[string]int)}
		for term := range r.tokenizer.Terms(chunk.Text) {
			p.total++
			if _, ok := querySet[term]; ok {
				p.tf[term]++
			}
		}
		for term := range p.tf {
			df[term]++
		}
		profiles[i] = p
	}

	idf := make(map[string]float64, len(queryTerms))
	for _, term := range queryTerms {
		idf[term] = IDF(len(chunks), df[term])
	}

	scored := make([]scoredChunk, 0, len(chunks))
	for i, p := range profiles {
		if p.total == 0 || len(p.tf) == 0 {
			continue
		}

		score := 0.0
		for _, term := range queryTerms {
			tf, ok := p.tf[term]
			if !ok {
				continue
			}
			score += float64(tf) / float64(p.total) * idf[term]
		}

		if score > 0 {
			scored = append(scored, scoredChunk{
				chunk: chunks[i],
				score: score,
				title: strings.ToUpper(chunks[i].SourceTitle),
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].title < scored[j].title
	})

	k := min(max(1, maxHits), len(scored))
	for i, s := range scored[:k] {
		hits = append(hits, domain.Hit{
			Rank:  i + 1,
			Score: s.score,
			Chunk: s.chunk,
		})
	}
	return hits
}

// QueryTerms returns the distinct non-stopword tokens of query in first-seen
// order.
func (r *TFIDFRetriever) QueryTerms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for term := range r.tokenizer.Terms(query) {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// IDF is the smoothed inverse document frequency used for scoring: it is
// always at least 1 so a single match never scores zero.
func IDF(totalChunks, docFreq int) float64 {
	return math.Log((float64(totalChunks)+1)/(float64(max(1, docFreq))+1)) + 1
}
