package lnpub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/brogergvhs/noveld/internal/providers/lnpub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body>
<div class="recommendation-card">
  <a class="card-cover-link" href="/novel/shadow-garden/"><div class="card-cover"><img src="/covers/shadow.jpg"></div></a>
  <div class="card-title">Shadow Garden</div>
  <div class="card-rating">★ 4.8</div>
  <div class="chapters">1200 chapters</div>
  <div class="card-rank">RANK 1</div>
</div>
<div class="recommendation-card">
  <div class="card-title">Linkless Novel</div>
</div>
<div class="recommendation-card">
  <div class="card-rating">★ 3.0</div>
</div>
</body></html>`

const detailHTML = `<html><body>
<h1 class="novel-title">Shadow Garden</h1>
<div class="novel-author">Author: Anonym</div>
<img class="novel-cover" src="/covers/shadow-big.jpg">
<div class="stat-box"><span class="stat-label">Views</span><span class="stat-value">12.5M</span></div>
<div class="stat-box"><span class="stat-label">Bookmarks</span><span class="stat-value">210K</span></div>
<span class="status-badge">Completed</span>
<a class="genre-tag">Fantasy</a><a class="genre-tag">Horror</a>
<div class="summary-content">A long synopsis about shadows.</div>
<div class="card-rating">★ 4.7</div>
<div class="rank-badge">RANK 2</div>
</body></html>`

const chaptersPage1HTML = `<html><body>
<div class="chapter-card" onclick="location.href='/novel/shadow-garden/chapter/551123'">
  <span class="chapter-number">1</span>
  <span class="chapter-title">Nightmare Begins</span>
  <span class="chapter-time">2 years ago</span>
</div>
<div class="chapter-card">
  <span class="chapter-number">1.5</span>
  <span class="chapter-title">Interlude</span>
  <a href="/novel/shadow-garden/chapter/551124/">read</a>
</div>
<div class="chapter-card">
  <span class="chapter-number">2</span>
  <span class="chapter-title">Lost</span>
</div>
<a class="page-link" title="Next Page">Next ›</a>
</body></html>`

const chaptersPage2HTML = `<html><body>
<div class="chapter-card" onclick="location.href='/novel/shadow-garden/chapter/551125'">
  <span class="chapter-number">3</span>
  <span class="chapter-title">Found</span>
</div>
<a class="page-link" title="Next Page">»</a>
</body></html>`

const chapterBodyHTML = `<html><body>
<div class="chapter-text">
  <script>track();</script>
  <style>.ad { display: none }</style>
  <p>First paragraph.</p>
  <p>Second paragraph.</p>
</div>
</body></html>`

func newTestScraper(t *testing.T) (*lnpub.Scraper, string, *[]url.URL) {
	t.Helper()

	var seen []url.URL
	mux := http.NewServeMux()
	mux.HandleFunc("/genre-all/", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, *r.URL)
		_, _ = w.Write([]byte(listingHTML))
	})
	mux.HandleFunc("/novel/shadow-garden/", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, *r.URL)
		_, _ = w.Write([]byte(detailHTML))
	})
	mux.HandleFunc("/novel/shadow-garden/chapters/", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, *r.URL)
		if r.URL.Query().Get("page") == "2" {
			_, _ = w.Write([]byte(chaptersPage2HTML))
			return
		}
		_, _ = w.Write([]byte(chaptersPage1HTML))
	})
	mux.HandleFunc("/novel/shadow-garden/chapter/551123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chapterBodyHTML))
	})
	mux.HandleFunc("/novel/shadow-garden/chapter/551199", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>not a chapter page</p></body></html>`))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return lnpub.NewScraper(ts.Client(), ts.URL, "popular", "completed"), ts.URL, &seen
}

func TestNovelListing(t *testing.T) {
	s, _, seen := newTestScraper(t)

	novels, err := s.NovelListing(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, novels, 2)

	first := novels[0]
	assert.Equal(t, "shadow-garden", first.Slug)
	assert.Equal(t, "shadow-garden", first.ID)
	assert.Equal(t, "Shadow Garden", first.Title)
	assert.Contains(t, first.URL, "/novel/shadow-garden/")
	assert.Contains(t, first.CoverURL, "/covers/shadow.jpg")
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.8, *first.Rating)
	require.NotNil(t, first.ChaptersCount)
	assert.Equal(t, 1200, *first.ChaptersCount)
	require.NotNil(t, first.Rank)
	assert.Equal(t, 1, *first.Rank)

	second := novels[1]
	assert.Equal(t, "linkless-novel", second.Slug)
	assert.Empty(t, second.URL)
	assert.Nil(t, second.Rating)

	require.Len(t, *seen, 1)
	q := (*seen)[0].Query()
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "popular", q.Get("order"))
	assert.Equal(t, "completed", q.Get("status"))
}

func TestNovelDetail(t *testing.T) {
	s, _, _ := newTestScraper(t)

	n, err := s.NovelDetail(context.Background(), "shadow-garden")
	require.NoError(t, err)

	assert.Equal(t, "shadow-garden", n.Slug)
	assert.Equal(t, "Shadow Garden", n.Title)
	assert.Equal(t, "Anonym", n.Author)
	assert.Contains(t, n.CoverURL, "/covers/shadow-big.jpg")
	assert.Equal(t, map[string]string{"views": "12.5M", "bookmarks": "210K"}, n.Stats)
	assert.Equal(t, "Completed", n.Status)
	assert.Equal(t, []string{"Fantasy", "Horror"}, n.Genres)
	assert.Equal(t, "A long synopsis about shadows.", n.Summary)
	require.NotNil(t, n.Rating)
	assert.Equal(t, 4.7, *n.Rating)
	require.NotNil(t, n.Rank)
	assert.Equal(t, 2, *n.Rank)
}

func TestChapterListing_FirstPage(t *testing.T) {
	s, _, seen := newTestScraper(t)

	stubs, hasNext, err := s.ChapterListing(context.Background(), "shadow-garden", 1)
	require.NoError(t, err)
	assert.True(t, hasNext)
	require.Len(t, stubs, 3)

	withOnclick := stubs[0]
	assert.Equal(t, "1", withOnclick.Number)
	assert.Equal(t, "Nightmare Begins", withOnclick.Title)
	assert.Equal(t, "2 years ago", withOnclick.OriginalTime)
	assert.Equal(t, "shadow-garden", withOnclick.NovelSlug)
	assert.Contains(t, withOnclick.URL, "/novel/shadow-garden/chapter/551123")
	require.NotNil(t, withOnclick.ID)
	assert.Equal(t, "551123", *withOnclick.ID)

	withAnchor := stubs[1]
	assert.Contains(t, withAnchor.URL, "/novel/shadow-garden/chapter/551124")
	require.NotNil(t, withAnchor.ID)
	assert.Equal(t, "551124", *withAnchor.ID)

	linkless := stubs[2]
	assert.Empty(t, linkless.URL)
	assert.Nil(t, linkless.ID)

	// the first page carries no page query parameter
	require.Len(t, *seen, 1)
	assert.Empty(t, (*seen)[0].RawQuery)
}

func TestChapterListing_SecondPageStopsWithoutNextMarker(t *testing.T) {
	s, _, seen := newTestScraper(t)

	stubs, hasNext, err := s.ChapterListing(context.Background(), "shadow-garden", 2)
	require.NoError(t, err)

	// the affordance element exists but its text is neither Next nor ›
	assert.False(t, hasNext)
	require.Len(t, stubs, 1)
	assert.Equal(t, "3", stubs[0].Number)

	require.Len(t, *seen, 1)
	assert.Equal(t, "2", (*seen)[0].Query().Get("page"))
}

func TestChapterBody(t *testing.T) {
	s, base, _ := newTestScraper(t)

	body, err := s.ChapterBody(context.Background(), base+"/novel/shadow-garden/chapter/551123")
	require.NoError(t, err)

	assert.Equal(t, "First paragraph.\nSecond paragraph.", body)
}

func TestChapterBody_MissingElement(t *testing.T) {
	s, base, _ := newTestScraper(t)

	_, err := s.ChapterBody(context.Background(), base+"/novel/shadow-garden/chapter/551199")

	assert.Error(t, err)
}

func TestFetchErrorsOnHTTPStatus(t *testing.T) {
	s, base, _ := newTestScraper(t)

	_, err := s.ChapterBody(context.Background(), base+"/gone")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}
