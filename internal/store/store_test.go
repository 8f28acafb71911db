package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brogergvhs/noveld/internal/novel"
	"github.com/brogergvhs/noveld/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()

	s := store.New(t.TempDir())
	require.NoError(t, s.Init())

	return s
}

func TestLoadIndex_MissingFile(t *testing.T) {
	s := newStore(t)

	ix, err := s.LoadIndex()

	require.NoError(t, err)
	assert.Nil(t, ix)
}

func TestIndexRoundtrip(t *testing.T) {
	s := newStore(t)
	ix := novel.Index{
		{Slug: "first-novel", Title: "First Novel", URL: "https://example.org/novel/first-novel/"},
		{Slug: "second-novel", Title: "Second Novel"},
	}

	require.NoError(t, s.SaveIndex(ix))

	got, err := s.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, ix, got)
}

func TestSaveIndex_NilWritesEmptyList(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.SaveIndex(nil))

	b, err := os.ReadFile(s.IndexPath())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestLoadIndex_Corrupt(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(s.IndexPath(), []byte("{nope"), 0644))

	_, err := s.LoadIndex()

	assert.Error(t, err)
}

func TestLoadDataset_MissingFile(t *testing.T) {
	s := newStore(t)

	ds, err := s.LoadDataset("unknown-slug")

	require.NoError(t, err)
	assert.Nil(t, ds)
}

func TestDatasetRoundtrip(t *testing.T) {
	s := newStore(t)

	content := "Some chapter body text that is long enough."
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	id := "ch-1"

	ds := &novel.Dataset{
		Metadata: novel.Metadata{
			ScrapedAt:     now,
			TotalChapters: 2,
			NovelSlug:     "first-novel",
			IsPartialSave: true,
			Progress:      "2 chapters processed",
		},
		NovelInfo: novel.Novel{Slug: "first-novel", Title: "First Novel"},
		Chapters: []novel.Chapter{
			{ID: &id, Number: "1", Title: "One", NovelSlug: "first-novel", Content: &content, ScrapedAt: &now, ContentScrapedAt: &now},
			{Number: "2", Title: "Two", NovelSlug: "first-novel", Error: "Failed to fetch content"},
		},
	}

	require.NoError(t, s.SaveDataset(ds))

	got, err := s.LoadDataset("first-novel")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ds.Metadata, got.Metadata)
	assert.Equal(t, ds.NovelInfo.Slug, got.NovelInfo.Slug)
	require.Len(t, got.Chapters, 2)
	require.NotNil(t, got.Chapters[0].Content)
	assert.Equal(t, content, *got.Chapters[0].Content)
	assert.Nil(t, got.Chapters[1].Content)
	assert.Equal(t, "Failed to fetch content", got.Chapters[1].Error)
}

func TestSaveDataset_NilChaptersBecomeEmptyList(t *testing.T) {
	s := newStore(t)
	ds := &novel.Dataset{Metadata: novel.Metadata{NovelSlug: "bare"}}

	require.NoError(t, s.SaveDataset(ds))

	got, err := s.LoadDataset("bare")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.Chapters)
	assert.Empty(t, got.Chapters)
}

func TestDatasetPath(t *testing.T) {
	s := store.New("/data")

	assert.Equal(t, filepath.Join("/data", "novels", "some-slug.json"), s.DatasetPath("some-slug"))
}
