package retriever

import (
	"iter"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/config"
	"cortex/internal/adapter/analyzer"
	"cortex/internal/adapter/chunker"
	"cortex/internal/domain"
)

func newRetriever() *TFIDFRetriever {
	return NewTFIDFRetriever(chunker.NewWindowChunker(), analyzer.NewTokenizer())
}

func doc(id, title, text string) domain.Document {
	return domain.Document{
		ID:               id,
		Title:            title,
		Text:             text,
		Processed:        true,
		IncludeInContext: true,
	}
}

func TestSearch_SingleSentence(t *testing.T) {
	r := newRetriever()
	docs := []domain.Document{
		doc("d1", "Incident Report", "The engine failure was caused by overheating."),
	}

	hits := r.Search("engine failure", docs, 6)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Rank)
	assert.Greater(t, hits[0].Score, 0.0)
	assert.Contains(t, hits[0].Chunk.Text, "The engine failure was caused by overheating.")
	assert.Equal(t, "d1", hits[0].Chunk.SourceID)
	assert.Equal(t, 0, hits[0].Chunk.ChunkIndex)
}

func TestSearch_TermFrequencyRanksHigher(t *testing.T) {
	r := newRetriever()
	docs := []domain.Document{
		doc("once", "Survey", "Rocket propulsion is mentioned once here among many other unrelated words about gardening, cooking recipes, painting techniques, travel plans, music theory."),
		doc("thrice", "Primer", "Rocket propulsion basics. Rocket propulsion uses thrust. Advanced rocket propulsion research continues today."),
	}

	hits := r.Search("rocket propulsion", docs, 5)
	require.Len(t, hits, 2)
	assert.Equal(t, "thrice", hits[0].Chunk.SourceID)
	assert.Equal(t, "once", hits[1].Chunk.SourceID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, []int{1, 2}, []int{hits[0].Rank, hits[1].Rank})
}

func TestSearch_ScoreFormula(t *testing.T) {
	r := newRetriever()
	docs := []domain.Document{
		doc("d1", "Greek", "alpha beta alpha gamma delta epsilon zeta eta theta iota"),
	}

	hits := r.Search("alpha", docs, 1)
	require.Len(t, hits, 1)
	// one chunk, df=1: idf = ln(2/2)+1 = 1, tf = 2/10
	assert.InDelta(t, 0.2, hits[0].Score, 1e-12)
}

func TestSearch_IDFFavorsRareTerms(t *testing.T) {
	r := newRetriever()
	filler := " with enough surrounding words to pass the length check"
	docs := []domain.Document{
		doc("a", "A", "common rare"+filler),
		doc("b", "B", "common ordinary"+filler),
		doc("c", "C", "common usual"+filler),
	}

	hits := r.Search("common rare", docs, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, "a", hits[0].Chunk.SourceID)

	total := 8.0 // common, one distinct word, six non-stopword filler terms
	expected := 1/total*IDF(3, 3) + 1/total*IDF(3, 1)
	assert.InDelta(t, expected, hits[0].Score, 1e-12)
}

func TestSearch_EmptyInputs(t *testing.T) {
	r := newRetriever()
	docs := []domain.Document{doc("d1", "T", "The engine failure was caused by overheating.")}

	tests := []struct {
		name  string
		query string
		docs  []domain.Document
	}{
		{"blank query", "   ", docs},
		{"empty query", "", docs},
		{"nil documents", "engine", nil},
		{"empty documents", "engine", []domain.Document{}},
		{"stopword-only query", "the and of it was", docs},
		{"no matching terms", "submarine", docs},
		{"only short documents", "engine", []domain.Document{doc("s", "S", "engine")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := r.Search(tt.query, tt.docs, 5)
			require.NotNil(t, hits)
			assert.Empty(t, hits)
		})
	}
}

func TestSearch_MaxHitsClamp(t *testing.T) {
	r := newRetriever()
	docs := []domain.Document{
		doc("a", "A", "turbine blade inspection notes and turbine vibration data"),
		doc("b", "B", "turbine maintenance schedule for the northern plant site"),
	}

	for _, maxHits := range []int{0, -3, 1} {
		hits := r.Search("turbine", docs, maxHits)
		assert.Len(t, hits, 1, "maxHits=%d", maxHits)
		assert.Equal(t, 1, hits[0].Rank)
	}

	assert.Len(t, r.Search("turbine", docs, 10), 2)
}

func TestSearch_TieBreakByTitleCaseInsensitive(t *testing.T) {
	r := newRetriever()
	text := "Identical passage about glacier retreat measured over decades."
	docs := []domain.Document{
		doc("z", "zebra", text),
		doc("b", "beta", text),
		doc("a", "Alpha", text),
		doc("u", "A_B", text),
		doc("aa", "aa", text),
	}

	hits := r.Search("glacier", docs, 10)
	require.Len(t, hits, 5)

	var titles []string
	for _, h := range hits {
		titles = append(titles, h.Chunk.SourceTitle)
		assert.Equal(t, hits[0].Score, h.Score)
	}
	assert.Equal(t, []string{"aa", "Alpha", "A_B", "beta", "zebra"}, titles)
}

func TestSearch_Deterministic(t *testing.T) {
	r := newRetriever()
	var docs []domain.Document
	for i, title := range []string{"Ops Log", "ops log", "Design", "Notes", "Audit"} {
		text := strings.Repeat("pump pressure valve reading nominal. ", 10+i*7) +
			"\n" + strings.Repeat("valve replaced after pressure drop. ", 40)
		docs = append(docs, doc(title+"-id", title, text))
	}

	first := r.Search("valve pressure drop", docs, 8)
	require.NotEmpty(t, first)
	for i := 0; i < 20; i++ {
		again := r.Search("valve pressure drop", docs, 8)
		require.Equal(t, first, again)
	}
}

func TestSearch_DuplicateQueryTermsCollapse(t *testing.T) {
	r := newRetriever()
	docs := []domain.Document{doc("d1", "T", "The engine failure was caused by overheating.")}

	single := r.Search("engine", docs, 1)
	repeated := r.Search("Engine ENGINE engine", docs, 1)
	require.Len(t, single, 1)
	require.Len(t, repeated, 1)
	assert.Equal(t, single[0].Score, repeated[0].Score)
}

func TestSearch_MultipleChunksPerDocument(t *testing.T) {
	r := newRetriever()
	text := strings.Repeat("general background filler text ", 60) + "\n" +
		strings.Repeat("hydraulic leak detected in the aft section. ", 30)
	docs := []domain.Document{doc("d1", "Long", text)}

	hits := r.Search("hydraulic leak", docs, 10)
	require.NotEmpty(t, hits)
	assert.Greater(t, hits[0].Chunk.ChunkIndex, 0)
	for i, h := range hits {
		assert.Equal(t, i+1, h.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, hits[i-1].Score, h.Score)
		}
	}
}

func TestQueryTerms(t *testing.T) {
	r := newRetriever()
	assert.Equal(t, []string{"engine", "failure"}, r.QueryTerms("The Engine and the FAILURE of the engine"))
	assert.Empty(t, r.QueryTerms("the of and"))
}

func TestIDF(t *testing.T) {
	assert.InDelta(t, 1.0, IDF(3, 3), 1e-12)
	assert.InDelta(t, math.Log(11.0/2.0)+1, IDF(10, 0), 1e-12)
	assert.Equal(t, IDF(10, 1), IDF(10, 0))
	assert.GreaterOrEqual(t, IDF(1, 1), 1.0)
}

// sentenceChunker yields one chunk per line, for checking that scoring only
// depends on what the chunker hands over.
type sentenceChunker struct{}

func (sentenceChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	return slices.Collect(sentenceChunker{}.Chunks(doc)), nil
}

func (sentenceChunker) Chunks(doc domain.Document) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		for i, line := range strings.Split(doc.Text, "\n") {
			if !yield(domain.Chunk{SourceID: doc.ID, SourceTitle: doc.Title, ChunkIndex: i, Text: line}) {
				return
			}
		}
	}
}

func TestSearch_UsesInjectedChunker(t *testing.T) {
	r := NewTFIDFRetriever(sentenceChunker{}, analyzer.NewTokenizer())
	docs := []domain.Document{
		doc("d1", "Log", "pumps restarted\nvalve seven replaced\ncoolant topped up"),
	}

	hits := r.Search("valve", docs, 6)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Chunk.ChunkIndex)
	assert.Equal(t, "valve seven replaced", hits[0].Chunk.Text)
}

func TestNewFromConfig(t *testing.T) {
	rc := config.DefaultConfig().Retrieve
	rc.MaxChunkChars = 100
	rc.OverlapChars = 20
	rc.MinBreakOffset = 50
	r := NewFromConfig(rc)

	long := doc("d1", "Long", strings.Repeat("pump pressure dropped overnight. ", 10))
	short := doc("d2", "Short", "too short")
	assert.Greater(t, r.ChunkCount([]domain.Document{long}), 1)
	assert.Equal(t, 0, r.ChunkCount([]domain.Document{short}))

	hits := r.Search("pressure", []domain.Document{long}, 1)
	require.Len(t, hits, 1)
	assert.LessOrEqual(t, len([]rune(hits[0].Chunk.Text)), 100)
}
