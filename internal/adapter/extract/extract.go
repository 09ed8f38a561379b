package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cortex/internal/domain"
	"cortex/internal/port"
)

// ErrUnsupported is returned for files no extractor handles.
var ErrUnsupported = errors.New("unsupported file type")

// Registry dispatches extraction on the lowercase file extension.
type Registry struct {
	byExt map[string]entry
}

type entry struct {
	extractor port.Extractor
	docType   domain.DocumentType
}

var _ port.Extractor = (*Registry)(nil)

// NewRegistry returns a registry with the plain text, Markdown and PDF
// extractors registered.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]entry)}
	plain := PlainText{}
	md := NewMarkdown()
	pdf := PDF{}
	for _, ext := range []string{".txt", ".text", ".log"} {
		r.Register(ext, plain, domain.DocumentText)
	}
	for _, ext := range []string{".md", ".markdown"} {
		r.Register(ext, md, domain.DocumentMarkdown)
	}
	r.Register(".pdf", pdf, domain.DocumentPDF)
	return r
}

func (r *Registry) Register(ext string, e port.Extractor, docType domain.DocumentType) {
	r.byExt[strings.ToLower(ext)] = entry{extractor: e, docType: docType}
}

func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DocumentType reports the document type for path, or "" if unsupported.
func (r *Registry) DocumentType(path string) domain.DocumentType {
	return r.byExt[strings.ToLower(filepath.Ext(path))].docType
}

func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.extractor.Extract(ctx, path)
}

// PlainText reads a file as UTF-8 text.
type PlainText struct{}

func (PlainText) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return cleanText(string(data)), nil
}

func cleanText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToValidUTF8(s, "\uFFFD")
}
