package providers

import (
	"context"

	"github.com/brogergvhs/noveld/internal/novel"
)

// Source is one catalog site. Implementations issue exactly one request
// per call and leave retrying to the caller. Returned records carry no
// timestamps; the crawler stamps those.
type Source interface {
	// NovelListing returns the novel summaries on one catalog page.
	// An empty slice means the page holds no novels.
	NovelListing(ctx context.Context, page int) ([]novel.Novel, error)

	// NovelDetail fetches the detail page for a slug.
	NovelDetail(ctx context.Context, slug string) (*novel.Novel, error)

	// ChapterListing returns the chapter stubs on one listing page and
	// whether the page advertises a next page.
	ChapterListing(ctx context.Context, slug string, page int) ([]novel.Chapter, bool, error)

	// ChapterBody fetches the plain text body of one chapter.
	ChapterBody(ctx context.Context, chapterURL string) (string, error)
}
