package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/domain"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		path     string
		supports bool
		docType  domain.DocumentType
	}{
		{"notes.txt", true, domain.DocumentText},
		{"server.LOG", true, domain.DocumentText},
		{"readme.md", true, domain.DocumentMarkdown},
		{"guide.markdown", true, domain.DocumentMarkdown},
		{"paper.pdf", true, domain.DocumentPDF},
		{"image.png", false, ""},
		{"Makefile", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.supports, r.Supports(tt.path))
			assert.Equal(t, tt.docType, r.DocumentType(tt.path))
		})
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	path := writeTemp(t, "image.png", "binary")

	_, err := r.Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRegistry_CanceledContext(t *testing.T) {
	r := NewRegistry()
	path := writeTemp(t, "notes.txt", "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlainText(t *testing.T) {
	path := writeTemp(t, "notes.txt", "\ufeffThe engine failure was caused by overheating.\r\n")

	text, err := NewRegistry().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "The engine failure was caused by overheating.\r\n", text)
}

func TestPlainText_InvalidUTF8(t *testing.T) {
	path := writeTemp(t, "bad.txt", "ok \xff\xfe done")

	text, err := PlainText{}.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "ok \uFFFD done", text)
}

func TestPlainText_Missing(t *testing.T) {
	_, err := PlainText{}.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestMarkdown_PlainText(t *testing.T) {
	src := "# Incident Report\n\n" +
		"The **engine** failure was caused by [overheating](https://example.com).\n" +
		"Second line of the paragraph.\n\n" +
		"- first item\n- second item\n\n" +
		"```go\nfmt.Println(\"hi\")\n```\n\n" +
		"<div>raw html</div>\n"

	text := NewMarkdown().PlainText([]byte(src))

	assert.Contains(t, text, "Incident Report\n")
	assert.Contains(t, text, "The engine failure was caused by overheating.\nSecond line of the paragraph.")
	assert.Contains(t, text, "first item\nsecond item")
	assert.Contains(t, text, `fmt.Println("hi")`)
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "https://example.com")
	assert.NotContains(t, text, "<div>")
}

func TestMarkdown_Table(t *testing.T) {
	src := "| Name | Value |\n|------|-------|\n| pump | 42 |\n"

	text := NewMarkdown().PlainText([]byte(src))
	assert.Contains(t, text, "Name | Value")
	assert.Contains(t, text, "pump | 42")
}

func TestMarkdown_Extract(t *testing.T) {
	path := writeTemp(t, "guide.md", "## Setup\n\nRun the *installer*.\n")

	text, err := NewRegistry().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Setup\nRun the installer.", text)
}

func TestPDF_InvalidFile(t *testing.T) {
	path := writeTemp(t, "broken.pdf", "this is not a pdf document")

	_, err := PDF{}.Extract(context.Background(), path)
	assert.Error(t, err)
}
