package port

import "context"

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Extractor turns a source file into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
