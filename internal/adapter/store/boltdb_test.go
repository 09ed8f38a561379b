package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"cortex/internal/domain"
)

func openStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func sampleDoc(id string, added time.Time) domain.Document {
	return domain.Document{
		ID:               id,
		Title:            "Doc " + id,
		Path:             "/notes/" + id + ".md",
		Type:             domain.DocumentMarkdown,
		Text:             "Some extracted text for " + id,
		Processed:        true,
		IncludeInContext: true,
		AddedAt:          added,
	}
}

func TestBoltStore_PutGet(t *testing.T) {
	s, _ := openStore(t)
	added := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(sampleDoc("a", added)))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, sampleDoc("a", added), got)
}

func TestBoltStore_PutRequiresID(t *testing.T) {
	s, _ := openStore(t)
	assert.Error(t, s.Put(domain.Document{Title: "no id"}))
}

func TestBoltStore_PutSetsAddedAt(t *testing.T) {
	s, _ := openStore(t)
	doc := sampleDoc("a", time.Time{})

	require.NoError(t, s.Put(doc))
	got, err := s.Get("a")
	require.NoError(t, err)
	assert.False(t, got.AddedAt.IsZero())
}

func TestBoltStore_NotFound(t *testing.T) {
	s, _ := openStore(t)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.ErrorIs(t, s.Delete("missing"), domain.ErrDocumentNotFound)
	assert.ErrorIs(t, s.SetIncluded("missing", false), domain.ErrDocumentNotFound)
	assert.ErrorIs(t, s.Rename("missing", "x"), domain.ErrDocumentNotFound)
}

func TestBoltStore_ListOrder(t *testing.T) {
	s, _ := openStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(sampleDoc("c", base.Add(2*time.Hour))))
	require.NoError(t, s.Put(sampleDoc("b", base)))
	require.NoError(t, s.Put(sampleDoc("a", base)))

	docs, err := s.List()
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
	assert.Equal(t, "Some extracted text for c", docs[2].Text)
}

func TestBoltStore_ListEmpty(t *testing.T) {
	s, _ := openStore(t)

	docs, err := s.List()
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestBoltStore_SetIncludedAndRename(t *testing.T) {
	s, _ := openStore(t)
	require.NoError(t, s.Put(sampleDoc("a", time.Now())))

	require.NoError(t, s.SetIncluded("a", false))
	require.NoError(t, s.Rename("a", "Renamed"))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.False(t, got.IncludeInContext)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "Some extracted text for a", got.Text)
}

func TestBoltStore_Delete(t *testing.T) {
	s, _ := openStore(t)
	require.NoError(t, s.Put(sampleDoc("a", time.Now())))

	require.NoError(t, s.Delete("a"))
	_, err := s.Get("a")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.Put(sampleDoc("a", time.Now())))
	require.NoError(t, s.Close())

	reopened, err := NewBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Doc a", got.Title)
}

func TestBoltStore_SchemaVersion(t *testing.T) {
	s, _ := openStore(t)

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
	assert.NoError(t, s.Migrate())
}

func TestBoltStore_RejectsNewerSchema(t *testing.T) {
	s, path := openStore(t)
	err := s.DB().Update(func(tx *bbolt.Tx) error {
		data, _ := json.Marshal(CurrentSchemaVersion + 1)
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewBoltStore(path)
	assert.Error(t, err)
}
