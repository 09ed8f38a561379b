package chunker

import (
	"iter"
	"slices"
	"strings"
	"unicode/utf8"

	"cortex/internal/domain"
	"cortex/internal/port"
)

const (
	DefaultMaxChunkChars  = 1200
	DefaultOverlapChars   = 200
	DefaultMinBreakOffset = 300
	DefaultMinTextChars   = 40
)

var _ port.Chunker = (*WindowChunker)(nil)

// WindowChunker cuts a document into overlapping character windows,
// preferring to end a window on its last newline. Lengths are in runes.
type WindowChunker struct {
	maxChars     int
	overlap      int
	minBreak     int
	minTextChars int
}

// Option configures the chunker.
type Option func(*WindowChunker)

// WithMaxChars sets the maximum window length.
func WithMaxChars(n int) Option {
	return func(c *WindowChunker) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithOverlap sets how far the next window steps back into the previous one.
func WithOverlap(n int) Option {
	return func(c *WindowChunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// WithMinBreakOffset sets how deep into a window a newline must be before the
// window is cut there.
func WithMinBreakOffset(n int) Option {
	return func(c *WindowChunker) {
		if n >= 0 {
			c.minBreak = n
		}
	}
}

// WithMinTextChars sets the trimmed length below which a document is skipped.
func WithMinTextChars(n int) Option {
	return func(c *WindowChunker) {
		if n >= 0 {
			c.minTextChars = n
		}
	}
}

// NewWindowChunker creates a chunker. Every window advances by more than the
// overlap: overlap is kept below maxChars and minBreak is raised to at least
// the overlap.
func NewWindowChunker(opts ...Option) *WindowChunker {
	c := &WindowChunker{
		maxChars:     DefaultMaxChunkChars,
		overlap:      DefaultOverlapChars,
		minBreak:     DefaultMinBreakOffset,
		minTextChars: DefaultMinTextChars,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.maxChars {
		c.overlap = c.maxChars / 4
	}
	if c.minBreak < c.overlap {
		c.minBreak = c.overlap
	}
	return c
}

// Eligible reports whether text is long enough to be chunked.
func (c *WindowChunker) Eligible(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= c.minTextChars
}

// Chunk returns every chunk of doc.
func (c *WindowChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	return slices.Collect(c.Chunks(doc)), nil
}

// Chunks lazily yields the chunks of doc in index order.
func (c *WindowChunker) Chunks(doc domain.Document) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		if !c.Eligible(doc.Text) {
			return
		}

		text := []rune(NormalizeNewlines(doc.Text))
		title := doc.DisplayTitle()
		start := 0
		index := 0

		for start < len(text) {
			n := min(c.maxChars, len(text)-start)
			window := text[start : start+n]

			if br := lastNewline(window); br > c.minBreak {
				n = br
				window = window[:br]
			}

			if trimmed := strings.TrimSpace(string(window)); trimmed != "" {
				chunk := domain.Chunk{
					SourceID:    doc.ID,
					SourceTitle: title,
					ChunkIndex:  index,
					Start:       start,
					End:         start + n,
					Text:        trimmed,
				}
				if !yield(chunk) {
					return
				}
				index++
			}

			if start+n >= len(text) {
				return
			}
			start = max(0, start+n-c.overlap)
		}
	}
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func lastNewline(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '\n' {
			return i
		}
	}
	return -1
}
