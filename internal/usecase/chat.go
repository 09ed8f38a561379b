package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"cortex/internal/domain"
	"cortex/internal/logger"
	"cortex/internal/port"
)

// NoRelevantSources is the reply when nothing matches and no model is usable.
const NoRelevantSources = "I couldn't find anything relevant in the current sources. Try adding more sources or asking a more specific question."

// ChatOptions tunes the chat responder. Zero values take the defaults.
type ChatOptions struct {
	MaxHits         int
	PreviewChars    int
	OfflineBullets  int
	FallbackSources int
}

func (o ChatOptions) withDefaults() ChatOptions {
	if o.MaxHits <= 0 {
		o.MaxHits = 6
	}
	if o.PreviewChars <= 0 {
		o.PreviewChars = 900
	}
	if o.OfflineBullets <= 0 {
		o.OfflineBullets = 5
	}
	if o.FallbackSources <= 0 {
		o.FallbackSources = 2
	}
	return o
}

// ChatUseCase answers questions over the library with numbered citations.
// A nil llm selects the offline answers.
type ChatUseCase struct {
	retrieve *RetrieveUseCase
	llm      port.LLM
	opts     ChatOptions
}

func NewChatUseCase(retrieve *RetrieveUseCase, llm port.LLM, opts ChatOptions) *ChatUseCase {
	return &ChatUseCase{
		retrieve: retrieve,
		llm:      llm,
		opts:     opts.withDefaults(),
	}
}

// Chat answers message from docs.
func (u *ChatUseCase) Chat(ctx context.Context, message string, docs []domain.Document) (domain.ChatResult, error) {
	result := domain.ChatResult{Citations: []domain.Citation{}}

	eligible := u.retrieve.EligibleDocuments(docs)
	hits := u.retrieve.Search(message, eligible, u.opts.MaxHits)

	if len(hits) == 0 {
		if u.llm == nil {
			result.Response = NoRelevantSources
			return result, nil
		}
		logger.Debug("no hits for %q, asking %s without citations", message, u.llm.ModelName())
		answer, err := u.llm.Generate(ctx, u.ungroundedPrompt(message, eligible))
		if err != nil {
			return result, fmt.Errorf("generate answer: %w", err)
		}
		result.Response = answer
		return result, nil
	}

	passages := make([]string, 0, len(hits))
	sources := make([]string, 0, len(hits))
	for _, h := range hits {
		preview := TrimPreview(h.Chunk.Text, u.opts.PreviewChars)
		result.Citations = append(result.Citations, domain.Citation{
			Rank:        h.Rank,
			SourceID:    h.Chunk.SourceID,
			SourceTitle: h.Chunk.SourceTitle,
			ChunkIndex:  h.Chunk.ChunkIndex,
			Preview:     preview,
		})
		passages = append(passages, fmt.Sprintf("[%d] (%s)\n%s", h.Rank, h.Chunk.SourceTitle, preview))
		sources = append(sources, fmt.Sprintf("[%d] %s", h.Rank, h.Chunk.SourceTitle))
	}
	sourcesList := strings.Join(sources, "\n")

	if u.llm == nil {
		result.Response = "Offline answer (grounded):\n\nMost relevant passages:\n" +
			u.bullets(hits) + "\n\nSources:\n" + sourcesList
		return result, nil
	}

	prompt := "You are a citation-aware assistant. Answer the question using ONLY the passages below.\n" +
		"Rules:\n" +
		"- If the passages don't contain the answer, say so plainly.\n" +
		"- Cite claims with bracketed citations like [1] or [2].\n" +
		"- Keep the answer concise and well-structured.\n\n" +
		"Question: " + message + "\n\nPassages:\n" + strings.Join(passages, "\n\n") + "\n\nAnswer:"

	answer, err := u.llm.Generate(ctx, prompt)
	if err != nil {
		return result, fmt.Errorf("generate answer: %w", err)
	}
	result.Response = answer + "\n\nSources:\n" + sourcesList
	return result, nil
}

func (u *ChatUseCase) ungroundedPrompt(message string, eligible []domain.Document) string {
	parts := make([]string, 0, u.opts.FallbackSources)
	for _, doc := range eligible[:min(u.opts.FallbackSources, len(eligible))] {
		parts = append(parts, fmt.Sprintf("--- SOURCE: %s ---\n%s", doc.DisplayTitle(), doc.Text))
	}
	return "You are a helpful assistant. Answer based on the provided sources. " +
		"If the sources don't contain the answer, say you don't know.\n\n" +
		"Sources:\n" + strings.Join(parts, "\n\n") + "\n\nQuestion: " + message + "\nAnswer:"
}

func (u *ChatUseCase) bullets(hits []domain.Hit) string {
	lines := make([]string, 0, u.opts.OfflineBullets)
	for _, h := range hits[:min(u.opts.OfflineBullets, len(hits))] {
		preview := strings.ReplaceAll(TrimPreview(h.Chunk.Text, u.opts.PreviewChars), "\n", " ")
		lines = append(lines, fmt.Sprintf("- [%d] %s: %s", h.Rank, h.Chunk.SourceTitle, preview))
	}
	return strings.Join(lines, "\n")
}

// TrimPreview trims text and cuts it to maxChars runes, marking a cut with "…".
func TrimPreview(text string, maxChars int) string {
	t := strings.TrimSpace(text)
	return Truncate(t, maxChars)
}

// Truncate cuts s to maxChars runes and appends "…" when it had to cut.
func Truncate(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	return string([]rune(s)[:maxChars]) + "…"
}
