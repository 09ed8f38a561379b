package domain

import (
	"errors"
	"strings"
	"time"
)

// UntitledSource is the display title for documents without one.
const UntitledSource = "(untitled)"

var ErrDocumentNotFound = errors.New("document not found")

type DocumentType string

const (
	DocumentText     DocumentType = "text"
	DocumentMarkdown DocumentType = "markdown"
	DocumentPDF      DocumentType = "pdf"
	DocumentURL      DocumentType = "url"
)

// Document is an ingested source. Retrieval only reads it.
type Document struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Path             string       `json:"path,omitempty"`
	Type             DocumentType `json:"type"`
	Text             string       `json:"text,omitempty"`
	Processed        bool         `json:"processed"`
	IncludeInContext bool         `json:"include_in_context"`
	AddedAt          time.Time    `json:"added_at"`
}

// DisplayTitle returns the title, or UntitledSource when it is blank.
func (d Document) DisplayTitle() string {
	if strings.TrimSpace(d.Title) == "" {
		return UntitledSource
	}
	return d.Title
}

// Chunk is a slice of one document's normalized text. Start and End are
// rune offsets of the window the text was trimmed from.
type Chunk struct {
	SourceID    string `json:"source_id"`
	SourceTitle string `json:"source_title"`
	ChunkIndex  int    `json:"chunk_index"`
	Start       int    `json:"-"`
	End         int    `json:"-"`
	Text        string `json:"text"`
}

type Hit struct {
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
	Chunk Chunk   `json:"chunk"`
}

type Citation struct {
	Rank        int    `json:"rank"`
	SourceID    string `json:"source_id"`
	SourceTitle string `json:"source_title"`
	ChunkIndex  int    `json:"chunk_index"`
	Preview     string `json:"preview"`
}

type ChatResult struct {
	Response  string     `json:"response"`
	Citations []Citation `json:"citations"`
}

type ArtifactType string

const (
	ArtifactBriefingDoc   ArtifactType = "briefing_doc"
	ArtifactSlideDeck     ArtifactType = "slide_deck"
	ArtifactMindMap       ArtifactType = "mind_map"
	ArtifactInfographic   ArtifactType = "infographic"
	ArtifactVideoOverview ArtifactType = "video_overview"
	ArtifactAudioOverview ArtifactType = "audio_overview"
	ArtifactQuiz          ArtifactType = "quiz"
	ArtifactFlashcards    ArtifactType = "flashcards"
	ArtifactDataTable     ArtifactType = "data_table"
)

// ArtifactTypes lists every supported artifact type in display order.
func ArtifactTypes() []ArtifactType {
	return []ArtifactType{
		ArtifactBriefingDoc, ArtifactSlideDeck, ArtifactMindMap, ArtifactInfographic,
		ArtifactVideoOverview, ArtifactAudioOverview, ArtifactQuiz, ArtifactFlashcards,
		ArtifactDataTable,
	}
}

type Artifact struct {
	Type    ArtifactType `json:"type"`
	Content string       `json:"content"`
	Offline bool         `json:"offline"`
}
