package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brogergvhs/noveld/internal/novel"
	"github.com/brogergvhs/noveld/internal/ui"
)

// minContentLen is the shortest trimmed body accepted as real chapter
// text; anything at or below it counts as a failed fetch.
const minContentLen = 10

const (
	errFetchFailed = "Failed to fetch content"
	errNoURL       = "No chapter URL available"
)

// harvestNovel brings one novel's dataset up to date: collect the
// chapter stubs missing from disk, fetch their bodies, then write the
// merged result as a complete dataset.
func (c *Crawler) harvestNovel(ctx context.Context, n novel.Novel) {
	existing, err := c.store.LoadDataset(n.Slug)
	if err != nil {
		c.log.Warnf("existing dataset for %s unreadable, refetching all: %v", n.Slug, err)
		existing = nil
	}

	var existingChapters []novel.Chapter
	if existing != nil {
		existingChapters = existing.Chapters
		c.log.Infof("found %d existing chapters for %s", len(existingChapters), n.Slug)
	}

	stubs := c.collectChapters(ctx, n.Slug, existingChapters)
	c.stats.ChaptersNew.Add(int64(len(stubs)))
	c.log.Infof("processing %d new chapters for %s", len(stubs), n.Slug)

	processed := c.processChapters(ctx, n.Slug, existing, stubs)

	if ctx.Err() != nil {
		c.log.Warnf("run interrupted, leaving %s at last checkpoint", n.Slug)
		return
	}

	final := novel.SortChapters(c.merge(existingChapters, processed))
	c.saveFinal(n, final)
}

func (c *Crawler) processChapters(ctx context.Context, slug string, existing *novel.Dataset, stubs []novel.Chapter) []novel.Chapter {
	if len(stubs) == 0 {
		return nil
	}

	var handle *ui.ProgressHandle
	if c.progress != nil {
		handle = c.progress.Register(slug)
		handle.SetTotal(len(stubs))
	}

	processed := make([]novel.Chapter, 0, len(stubs))
	var novelBytes int64

	for i, ch := range stubs {
		if ctx.Err() != nil {
			break
		}

		c.log.Infof("chapter %d/%d (%s) for %s", i+1, len(stubs), displayNumber(ch), slug)

		now := c.now()
		ch.ScrapedAt = &now

		if ch.URL == "" {
			c.log.Warnf("no URL for chapter %s of %s", displayNumber(ch), slug)
			ch.Error = errNoURL
			c.stats.ChaptersFailed.Add(1)
		} else {
			body, ok := c.fetchContent(ctx, ch.URL)
			stamped := c.now()
			ch.ContentScrapedAt = &stamped

			if ok {
				ch.Content = &body
				novelBytes += int64(len(body))
				c.stats.ChaptersFetched.Add(1)
				c.stats.TextBytes.Add(int64(len(body)))
			} else {
				ch.Error = errFetchFailed
				c.stats.ChaptersFailed.Add(1)
			}
		}

		processed = append(processed, ch)

		if handle != nil {
			handle.Update(len(processed), len(stubs), novelBytes)
		}

		if len(processed)%c.opts.CheckpointEvery == 0 || len(processed) == len(stubs) {
			c.checkpoint(slug, existing, processed)
		}

		if i < len(stubs)-1 {
			c.sleep(ctx, c.opts.ChapterDelay)
		}
	}

	if handle != nil {
		handle.MarkDone()
	}

	return processed
}

// fetchContent tries a chapter URL up to RetryAttempts times, waiting
// RetryDelay times the attempt number between tries. A transport
// error, a missing content element and a too-short body all count as
// failed attempts.
func (c *Crawler) fetchContent(ctx context.Context, chapterURL string) (string, bool) {
	attempts := c.opts.RetryAttempts

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return "", false
		}

		if attempt > 1 {
			c.log.Infof("retry %d/%d for %s", attempt, attempts, chapterURL)
		}

		body, err := c.source.ChapterBody(ctx, chapterURL)
		switch {
		case err != nil:
			c.log.Errorf("attempt %d failed for %s: %v", attempt, chapterURL, err)
		case len(strings.TrimSpace(body)) <= minContentLen:
			c.log.Warnf("content too short at %s", chapterURL)
		default:
			return body, true
		}

		if attempt < attempts {
			c.sleep(ctx, c.opts.RetryDelay*time.Duration(attempt))
		}
	}

	return "", false
}

// checkpoint persists a partial dataset so an interrupted run can
// resume without refetching. Save errors are logged, not fatal.
func (c *Crawler) checkpoint(slug string, existing *novel.Dataset, processed []novel.Chapter) {
	var existingChapters []novel.Chapter
	info := novel.Novel{Slug: slug}
	if existing != nil {
		existingChapters = existing.Chapters
		info = existing.NovelInfo
	}

	merged := novel.SortChapters(c.merge(existingChapters, processed))

	ds := &novel.Dataset{
		Metadata: novel.Metadata{
			ScrapedAt:     c.now(),
			TotalChapters: len(merged),
			NovelSlug:     slug,
			RunID:         c.runID,
			Progress:      fmt.Sprintf("%d chapters processed", len(processed)),
			IsPartialSave: true,
		},
		NovelInfo: info,
		Chapters:  merged,
	}

	if err := c.store.SaveDataset(ds); err != nil {
		c.log.Errorf("checkpoint save for %s: %v", slug, err)
		return
	}

	c.log.Infof("checkpoint: %s at %d chapters (%d total on disk)", slug, len(processed), len(merged))
}

func (c *Crawler) saveFinal(n novel.Novel, chapters []novel.Chapter) {
	now := c.now()

	firstScraped := n.FirstScraped
	if firstScraped.IsZero() {
		firstScraped = now
	}

	ds := &novel.Dataset{
		Metadata: novel.Metadata{
			ScrapedAt:     now,
			TotalChapters: len(chapters),
			NovelSlug:     n.Slug,
			NovelTitle:    n.Title,
			RunID:         c.runID,
			IsComplete:    true,
			FirstScraped:  firstScraped,
			LastUpdated:   now,
		},
		NovelInfo: n,
		Chapters:  chapters,
	}

	if err := c.store.SaveDataset(ds); err != nil {
		c.log.Errorf("final save for %s: %v", n.Slug, err)
		return
	}

	c.log.Infof("completed %s: %d chapters", n.Slug, len(chapters))
}

func displayNumber(ch novel.Chapter) string {
	if ch.Number != "" {
		return ch.Number
	}

	return "unknown"
}
