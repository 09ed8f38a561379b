package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cortex/internal/domain"
	"cortex/internal/logger"
	"cortex/internal/port"
)

const (
	studioSystemPrompt = "You turn source material into study artifacts. Stay grounded in the provided context and do not invent facts."
	llmContextChars    = 16000
)

// StudioOptions tunes artifact context building. Zero values take the defaults.
type StudioOptions struct {
	MaxHits             int
	ContextChars        int
	FallbackSources     int
	FallbackSourceChars int
}

func (o StudioOptions) withDefaults() StudioOptions {
	if o.MaxHits <= 0 {
		o.MaxHits = 8
	}
	if o.ContextChars <= 0 {
		o.ContextChars = 5000
	}
	if o.FallbackSources <= 0 {
		o.FallbackSources = 3
	}
	if o.FallbackSourceChars <= 0 {
		o.FallbackSourceChars = 1200
	}
	return o
}

// StudioUseCase generates artifacts (briefings, quizzes, mind maps, ...)
// from the library. A nil llm selects the offline builders.
type StudioUseCase struct {
	retrieve *RetrieveUseCase
	llm      port.LLM
	opts     StudioOptions
}

func NewStudioUseCase(retrieve *RetrieveUseCase, llm port.LLM, opts StudioOptions) *StudioUseCase {
	return &StudioUseCase{
		retrieve: retrieve,
		llm:      llm,
		opts:     opts.withDefaults(),
	}
}

// ArtifactQuery is the retrieval query used to gather context for t.
func ArtifactQuery(t domain.ArtifactType) string {
	switch t {
	case domain.ArtifactMindMap:
		return "key topics concepts relationships"
	case domain.ArtifactInfographic:
		return "process steps relationships overview"
	case domain.ArtifactSlideDeck:
		return "summary overview key points"
	case domain.ArtifactVideoOverview, domain.ArtifactAudioOverview:
		return "summary overview key points narrative"
	case domain.ArtifactQuiz:
		return "important facts definitions"
	case domain.ArtifactFlashcards:
		return "terms definitions key concepts"
	case domain.ArtifactDataTable:
		return "entities numbers comparisons"
	case domain.ArtifactBriefingDoc:
		return "executive summary key points stakeholders timeline"
	default:
		return "summary key points"
	}
}

// ParseArtifactType maps a name such as "quiz" or "mind-map" to its type.
func ParseArtifactType(name string) (domain.ArtifactType, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, t := range domain.ArtifactTypes() {
		if string(t) == n {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown artifact type %q", name)
}

// Context gathers the passages most relevant to t: the retrieved chunk texts,
// or the opening of the first few eligible documents when nothing matches.
func (u *StudioUseCase) Context(t domain.ArtifactType, docs []domain.Document) string {
	eligible := u.retrieve.EligibleDocuments(docs)
	hits := u.retrieve.Search(ArtifactQuery(t), eligible, u.opts.MaxHits)

	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Chunk.Text)
	}
	text := strings.Join(parts, "\n\n")

	if strings.TrimSpace(text) == "" {
		parts = parts[:0]
		for _, doc := range eligible[:min(u.opts.FallbackSources, len(eligible))] {
			parts = append(parts, doc.DisplayTitle()+"\n"+Truncate(doc.Text, u.opts.FallbackSourceChars))
		}
		text = strings.Join(parts, "\n\n")
	}

	return Truncate(text, u.opts.ContextChars)
}

// Generate builds an artifact of type t. Model failures and malformed
// structured output fall back to the offline builders.
func (u *StudioUseCase) Generate(ctx context.Context, t domain.ArtifactType, instructions string, docs []domain.Document) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}

	eligible := u.retrieve.EligibleDocuments(docs)
	if len(eligible) == 0 {
		return domain.Artifact{Type: t, Content: Placeholder(t), Offline: true}, nil
	}

	if u.llm != nil {
		content, err := u.llm.GenerateWithSystem(ctx, studioSystemPrompt, u.Prompt(t, instructions, eligible))
		switch {
		case err != nil && ctx.Err() != nil:
			return domain.Artifact{}, fmt.Errorf("generate %s: %w", t, ctx.Err())
		case err != nil:
			logger.Warn("generating %s with %s failed, using offline builder: %v", t, u.llm.ModelName(), err)
		default:
			if isStructured(t) {
				content = cleanCodeBlock(content)
			}
			if validArtifact(t, content) {
				return domain.Artifact{Type: t, Content: content}, nil
			}
			logger.Warn("%s returned an invalid %s, using offline builder", u.llm.ModelName(), t)
		}
	}

	return domain.Artifact{Type: t, Content: u.Offline(t, eligible), Offline: true}, nil
}

// Prompt returns the user prompt a model receives for t.
func (u *StudioUseCase) Prompt(t domain.ArtifactType, instructions string, docs []domain.Document) string {
	eligible := u.retrieve.EligibleDocuments(docs)
	return ArtifactPrompt(t, Truncate(sourceContext(eligible), llmContextChars), instructions)
}

// SystemPrompt is the system message sent with every artifact prompt.
func SystemPrompt() string { return studioSystemPrompt }

// Offline builds an artifact of type t without a model, from the context
// retrieved for it.
func (u *StudioUseCase) Offline(t domain.ArtifactType, docs []domain.Document) string {
	if len(u.retrieve.EligibleDocuments(docs)) == 0 {
		return Placeholder(t)
	}

	text := u.Context(t, docs)
	switch t {
	case domain.ArtifactSlideDeck:
		return mustJSON(buildSlides(text))
	case domain.ArtifactVideoOverview, domain.ArtifactInfographic:
		return mustJSON(buildVideoOverview(text))
	case domain.ArtifactAudioOverview:
		return mustJSON(buildAudioTurns(text))
	case domain.ArtifactMindMap:
		return buildMermaid(text)
	case domain.ArtifactFlashcards:
		return mustJSON(buildFlashcards(text))
	case domain.ArtifactQuiz:
		return mustJSON(buildQuiz(text))
	case domain.ArtifactDataTable:
		return buildTable(text)
	case domain.ArtifactBriefingDoc:
		return buildBriefing(text)
	default:
		return text
	}
}

// Placeholder is the content of an artifact generated without any sources.
func Placeholder(t domain.ArtifactType) string {
	switch t {
	case domain.ArtifactSlideDeck, domain.ArtifactQuiz, domain.ArtifactFlashcards:
		return "[]"
	case domain.ArtifactVideoOverview:
		return `{"narration":"Add sources to generate a video overview.","slides":[]}`
	case domain.ArtifactInfographic:
		return `{"narration":"Add sources to generate an infographic.","slides":[]}`
	case domain.ArtifactAudioOverview:
		return `[{"speaker":"Host","text":"Add sources to generate an audio overview."}]`
	case domain.ArtifactDataTable:
		return "| Item | Value |\n|---|---|\n| Status | Add sources |"
	case domain.ArtifactMindMap:
		return "graph TD\n  A[Add Sources] --> B[Then generate a diagram]"
	default:
		return "Add sources to generate this artifact."
	}
}

// ArtifactPrompt builds the model prompt for t over context.
func ArtifactPrompt(t domain.ArtifactType, context, instructions string) string {
	var task string
	switch t {
	case domain.ArtifactMindMap:
		task = "Create a Mermaid mind map (graph TD) of the key topics and how they relate. Return ONLY Mermaid code."
	case domain.ArtifactQuiz:
		task = `Create a quiz as a JSON array: [{"question":"...","options":["...","...","...","..."],"answer":"..."}]. Use 5 to 10 questions whose answers are in the text. Return ONLY JSON.`
	case domain.ArtifactFlashcards:
		task = `Create flashcards as a JSON array: [{"front":"term","back":"definition"}]. Return ONLY JSON.`
	case domain.ArtifactSlideDeck:
		task = `Create a slide deck as a JSON array: [{"title":"...","content":"..."}] with 5 to 8 slides. Return ONLY JSON.`
	case domain.ArtifactBriefingDoc:
		task = "Create a briefing document in Markdown summarizing the key points, timeline and stakeholders. Use clear headings and bullet points."
	case domain.ArtifactAudioOverview:
		task = `Write a two-host audio overview script as a JSON array: [{"speaker":"Host","text":"..."},{"speaker":"Guest","text":"..."}]. Return ONLY JSON.`
	case domain.ArtifactDataTable:
		task = "Extract the main entities, numbers and comparisons into a Markdown table with a header row."
	case domain.ArtifactInfographic:
		task = `Create an infographic plan as JSON: {"narration":"...","slides":[{"title":"...","content":"..."}]}. Return ONLY JSON.`
	case domain.ArtifactVideoOverview:
		task = `Create a video overview plan as JSON: {"narration":"...","slides":[{"title":"...","content":"..."}]}. The narration should be a cohesive summary of the sources. Return ONLY JSON.`
	default:
		task = "Analyze the following text."
	}

	if s := strings.TrimSpace(instructions); s != "" {
		task += "\n\nUser instructions (highest priority):\n" + s
	}
	return task + "\n\nContext:\n" + context
}

func sourceContext(docs []domain.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, fmt.Sprintf("--- SOURCE: %s ---\n%s", doc.DisplayTitle(), doc.Text))
	}
	return strings.Join(parts, "\n\n")
}

func isStructured(t domain.ArtifactType) bool {
	switch t {
	case domain.ArtifactMindMap, domain.ArtifactQuiz, domain.ArtifactFlashcards, domain.ArtifactSlideDeck,
		domain.ArtifactAudioOverview, domain.ArtifactInfographic, domain.ArtifactVideoOverview:
		return true
	}
	return false
}

// cleanCodeBlock strips a surrounding Markdown code fence.
func cleanCodeBlock(content string) string {
	c := strings.TrimSpace(content)
	if !strings.HasPrefix(c, "```") {
		return c
	}
	if i := strings.IndexByte(c, '\n'); i >= 0 {
		c = c[i+1:]
	} else {
		c = strings.TrimPrefix(c, "```")
	}
	c = strings.TrimSuffix(strings.TrimSpace(c), "```")
	return strings.TrimSpace(c)
}

func validArtifact(t domain.ArtifactType, content string) bool {
	c := strings.TrimSpace(content)
	if c == "" {
		return false
	}

	switch t {
	case domain.ArtifactMindMap:
		lower := strings.ToLower(c)
		return strings.HasPrefix(lower, "graph ") || strings.HasPrefix(lower, "mindmap") ||
			strings.Contains(lower, "graph td") || strings.Contains(lower, "graph lr")
	case domain.ArtifactQuiz, domain.ArtifactFlashcards, domain.ArtifactSlideDeck, domain.ArtifactAudioOverview:
		var v []any
		return strings.HasPrefix(c, "[") && json.Unmarshal([]byte(c), &v) == nil
	case domain.ArtifactVideoOverview, domain.ArtifactInfographic:
		var v struct {
			Narration *string `json:"narration"`
			Slides    []any   `json:"slides"`
		}
		if !strings.HasPrefix(c, "{") || json.Unmarshal([]byte(c), &v) != nil || v.Slides == nil {
			return false
		}
		return t == domain.ArtifactVideoOverview || v.Narration != nil
	default:
		return true
	}
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}
