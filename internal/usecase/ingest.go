package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"cortex/internal/domain"
	"cortex/internal/logger"
	"cortex/internal/port"
)

// TypedExtractor is an extractor that knows which files it handles.
type TypedExtractor interface {
	port.Extractor
	Supports(path string) bool
	DocumentType(path string) domain.DocumentType
}

// IngestUseCase adds files to the document library.
type IngestUseCase struct {
	store     port.DocumentStore
	walker    port.FileWalker
	extractor TypedExtractor
	now       func() time.Time
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(store port.DocumentStore, walker port.FileWalker, extractor TypedExtractor) *IngestUseCase {
	return &IngestUseCase{
		store:     store,
		walker:    walker,
		extractor: extractor,
		now:       time.Now,
	}
}

// IngestResult contains the results of an ingest operation.
type IngestResult struct {
	Added      []domain.Document
	Replaced   int
	Skipped    int
	Unreadable int
	Errors     []string
}

// Progress is called once per candidate file, after it was handled.
type Progress func(done, total int, path string)

// IngestPath walks path (a directory or a single file), extracts the text of
// every supported file and stores it. A file already in the library under the
// same path is replaced in place, keeping its id, title and include flag.
// Per-file failures are collected in the result.
func (u *IngestUseCase) IngestPath(ctx context.Context, path string, progress Progress) (*IngestResult, error) {
	files, err := u.walker.Walk(path)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}

	existing, err := u.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing documents: %w", err)
	}
	byPath := make(map[string]domain.Document, len(existing))
	for _, doc := range existing {
		if doc.Path != "" {
			byPath[doc.Path] = doc
		}
	}

	result := &IngestResult{}
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if !u.extractor.Supports(file.Path) {
			result.Skipped++
		} else if doc, err := u.ingestFile(ctx, file, byPath); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
			logger.Warn("failed to ingest %s: %v", file.Path, err)
		} else {
			if _, ok := byPath[file.Path]; ok {
				result.Replaced++
			}
			if !doc.Processed {
				result.Unreadable++
			}
			result.Added = append(result.Added, doc)
			byPath[file.Path] = doc
		}

		if progress != nil {
			progress(i+1, len(files), file.Path)
		}
	}

	logger.Info("ingested %d of %d files from %s", len(result.Added), len(files), path)
	return result, nil
}

func (u *IngestUseCase) ingestFile(ctx context.Context, file port.FileInfo, byPath map[string]domain.Document) (domain.Document, error) {
	text, err := u.extractor.Extract(ctx, file.Path)
	if err != nil {
		return domain.Document{}, err
	}

	doc := domain.Document{
		ID:               uuid.NewString(),
		Title:            titleFromPath(file.Path),
		Path:             file.Path,
		Type:             u.extractor.DocumentType(file.Path),
		Text:             text,
		Processed:        strings.TrimSpace(text) != "",
		IncludeInContext: true,
		AddedAt:          u.now(),
	}
	if prev, ok := byPath[file.Path]; ok {
		doc.ID = prev.ID
		doc.Title = prev.Title
		doc.IncludeInContext = prev.IncludeInContext
		doc.AddedAt = prev.AddedAt
	}

	if err := u.store.Put(doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to store document: %w", err)
	}
	return doc, nil
}

// AddText stores pasted text as a processed document.
func (u *IngestUseCase) AddText(title, text string) (domain.Document, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Document{}, fmt.Errorf("text is empty")
	}
	doc := domain.Document{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(title),
		Type:             domain.DocumentText,
		Text:             text,
		Processed:        true,
		IncludeInContext: true,
		AddedAt:          u.now(),
	}
	if err := u.store.Put(doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to store document: %w", err)
	}
	return doc, nil
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
