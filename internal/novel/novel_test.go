package novel_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/brogergvhs/noveld/internal/novel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int           { return &n }
func floatp(f float64) *float64 { return &f }

func TestIndexUpsert_Appends(t *testing.T) {
	ix := novel.Index{{Slug: "a", Title: "A"}}

	out := ix.Upsert(novel.Novel{Slug: "b", Title: "B"})

	require.Len(t, out, 2)
	assert.Equal(t, "b", out[1].Slug)
	assert.Len(t, ix, 1)
}

func TestIndexUpsert_ReplacesKeepingFirstScraped(t *testing.T) {
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ix := novel.Index{{Slug: "a", Title: "Old", FirstScraped: first}}

	out := ix.Upsert(novel.Novel{Slug: "a", Title: "New", FirstScraped: time.Now()})

	require.Len(t, out, 1)
	assert.Equal(t, "New", out[0].Title)
	assert.Equal(t, first, out[0].FirstScraped)
	assert.Equal(t, "Old", ix[0].Title)
}

func TestIndexFindAndContains(t *testing.T) {
	ix := novel.Index{{Slug: "a", Title: "A"}, {Slug: "b", Title: "B"}}

	got, ok := ix.Find("b")
	require.True(t, ok)
	assert.Equal(t, "B", got.Title)

	assert.True(t, ix.Contains("a"))
	assert.False(t, ix.Contains("c"))
}

func TestMergeDetail(t *testing.T) {
	first := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	summary := novel.Novel{
		Slug:          "a",
		Title:         "Card Title",
		Rating:        floatp(4.5),
		ChaptersCount: intp(120),
		FirstScraped:  first,
	}
	detail := novel.Novel{
		Slug:    "a",
		Title:   "Full Title",
		Author:  "Someone",
		Genres:  []string{"action"},
		Summary: "Long synopsis",
	}

	merged := novel.MergeDetail(summary, detail)

	assert.Equal(t, "Full Title", merged.Title)
	assert.Equal(t, "Someone", merged.Author)
	assert.Equal(t, intp(120), merged.ChaptersCount)
	assert.Equal(t, first, merged.FirstScraped)
	// detail fields win wholesale, even when empty on the detail page
	assert.Nil(t, merged.Rating)
}

func TestChapterJSON_NullableFields(t *testing.T) {
	b, err := json.Marshal(novel.Chapter{Number: "1", Title: "One", NovelSlug: "a"})
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, `"id":null`)
	assert.Contains(t, s, `"content":null`)
	assert.Contains(t, s, `"scraped_at":null`)
	assert.Contains(t, s, `"content_scraped_at":null`)
	assert.NotContains(t, s, `"error"`)
}
