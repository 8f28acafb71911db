package crawler

import (
	"context"

	"github.com/brogergvhs/noveld/internal/novel"
)

// collectChapters pages through a novel's chapter listing and returns
// the stubs not already present in existing. An empty page ends the
// walk even when a next-page affordance is still shown.
func (c *Crawler) collectChapters(ctx context.Context, slug string, existing []novel.Chapter) []novel.Chapter {
	var stubs []novel.Chapter
	page := 1

	for {
		if ctx.Err() != nil {
			return stubs
		}

		listed, hasNext, err := c.source.ChapterListing(ctx, slug, page)
		if err != nil {
			c.log.Errorf("chapters page %d for %s: %v", page, slug, err)
			return stubs
		}
		if len(listed) == 0 {
			c.log.Infof("no chapters on page %d for %s, stopping", page, slug)
			return stubs
		}

		for _, ch := range listed {
			if !novel.ContainsChapter(existing, ch) {
				stubs = append(stubs, ch)
			}
		}

		c.log.Infof("chapters page %d for %s: %d listed, %d new so far", page, slug, len(listed), len(stubs))

		if !hasNext {
			return stubs
		}

		page++
		c.sleep(ctx, c.opts.ChapterPageDelay)
	}
}
