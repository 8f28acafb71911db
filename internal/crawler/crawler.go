package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/brogergvhs/noveld/internal/novel"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/ui"
)

// ErrNoNovels is returned when the listing window yields nothing at
// all. Failures scoped to one page, novel or chapter are logged and
// recorded in the data instead of aborting the run.
var ErrNoNovels = errors.New("no novels found in listing window")

// Store is the persistence surface the crawler writes through.
// *store.Store satisfies it.
type Store interface {
	LoadIndex() (novel.Index, error)
	SaveIndex(ix novel.Index) error
	LoadDataset(slug string) (*novel.Dataset, error)
	SaveDataset(ds *novel.Dataset) error
}

type Options struct {
	StartPage int
	EndPage   int

	RetryAttempts   int
	RetryDelay      time.Duration
	CheckpointEvery int

	PageDelay        time.Duration
	DetailDelay      time.Duration
	ChapterPageDelay time.Duration
	ChapterDelay     time.Duration
	NovelDelay       time.Duration

	StrictDedup  bool
	RefreshKnown bool
	OnlySlugs    []string
}

// Crawler walks the catalog in two passes: novel details first, saved
// to the index as they land, then chapter bodies per novel with
// periodic checkpoints.
type Crawler struct {
	source   providers.Source
	store    Store
	log      *ui.Logger
	opts     Options
	progress *ui.MPBProgressManager
	stats    *ui.Stats

	runID string

	// injectable for tests
	sleep func(context.Context, time.Duration)
	now   func() time.Time
}

func New(source providers.Source, st Store, log *ui.Logger, opts Options) *Crawler {
	if opts.StartPage < 1 {
		opts.StartPage = 1
	}
	if opts.EndPage < opts.StartPage {
		opts.EndPage = opts.StartPage
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 3
	}
	if opts.CheckpointEvery < 1 {
		opts.CheckpointEvery = 10
	}

	return &Crawler{
		source: source,
		store:  st,
		log:    log,
		opts:   opts,
		stats:  &ui.Stats{},
		runID:  uuid.NewString(),
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

func (c *Crawler) SetProgress(pm *ui.MPBProgressManager) {
	c.progress = pm
}

func (c *Crawler) Stats() *ui.Stats {
	return c.stats
}

func (c *Crawler) RunID() string {
	return c.runID
}

func (c *Crawler) Run(ctx context.Context) error {
	ix, err := c.store.LoadIndex()
	if err != nil {
		c.log.Warnf("index unreadable, starting fresh: %v", err)
	}

	if len(c.opts.OnlySlugs) > 0 {
		return c.runTargeted(ctx, ix)
	}

	listed, err := c.Discover(ctx)
	if err != nil {
		return err
	}
	if len(listed) == 0 {
		return ErrNoNovels
	}

	c.log.Infof("found %d novels to process", len(listed))

	queued := make(map[string]bool)
	var targets []novel.Novel

	for i, summary := range listed {
		if err := ctx.Err(); err != nil {
			return err
		}

		if ix.Contains(summary.Slug) {
			c.log.Infof("already indexed, skipping details: %s", summary.Slug)
			if c.opts.RefreshKnown && !queued[summary.Slug] {
				if known, ok := ix.Find(summary.Slug); ok {
					queued[summary.Slug] = true
					targets = append(targets, known)
				}
			}
			continue
		}

		c.log.Infof("fetching details %d/%d: %s", i+1, len(listed), summary.Title)

		record := c.detailNovel(ctx, summary)
		queued[record.Slug] = true
		targets = append(targets, record)
		c.stats.NovelsDetailed.Add(1)

		ix = ix.Upsert(record)
		if err := c.store.SaveIndex(ix); err != nil {
			c.log.Errorf("saving index: %v", err)
		}

		if i < len(listed)-1 {
			c.sleep(ctx, c.opts.DetailDelay)
		}
	}

	return c.harvestAll(ctx, targets)
}

// runTargeted harvests an explicit slug list instead of walking the
// listing. Unknown slugs are detailed and indexed first.
func (c *Crawler) runTargeted(ctx context.Context, ix novel.Index) error {
	var targets []novel.Novel

	for _, slug := range c.opts.OnlySlugs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if known, ok := ix.Find(slug); ok {
			targets = append(targets, known)
			continue
		}

		c.log.Infof("fetching details for requested novel: %s", slug)

		detail, err := c.source.NovelDetail(ctx, slug)
		if err != nil {
			c.log.Errorf("detail page for %s: %v", slug, err)
			continue
		}

		now := c.now()
		detail.ScrapedAt = now
		detail.FirstScraped = now
		detail.LastUpdated = now
		c.stats.NovelsDetailed.Add(1)

		ix = ix.Upsert(*detail)
		if err := c.store.SaveIndex(ix); err != nil {
			c.log.Errorf("saving index: %v", err)
		}

		targets = append(targets, *detail)
		c.sleep(ctx, c.opts.DetailDelay)
	}

	if len(targets) == 0 {
		return ErrNoNovels
	}

	return c.harvestAll(ctx, targets)
}

// Discover walks the listing pages of the configured window and
// returns the summaries found. A fetch error or an empty page ends the
// walk early with whatever was collected so far.
func (c *Crawler) Discover(ctx context.Context) ([]novel.Novel, error) {
	var out []novel.Novel

	for page := c.opts.StartPage; page <= c.opts.EndPage; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		c.log.Infof("listing page %d/%d", page, c.opts.EndPage)

		listed, err := c.source.NovelListing(ctx, page)
		if err != nil {
			c.log.Errorf("listing page %d: %v", page, err)
			break
		}
		if len(listed) == 0 {
			c.log.Warnf("no novels on page %d", page)
			break
		}

		now := c.now()
		for i := range listed {
			listed[i].ScrapedAt = now
			listed[i].FirstScraped = now
			listed[i].LastUpdated = now
		}

		out = append(out, listed...)
		c.stats.NovelsListed.Add(int64(len(listed)))
		c.log.Infof("page %d: %d novels (%d total)", page, len(listed), len(out))

		if page < c.opts.EndPage {
			c.sleep(ctx, c.opts.PageDelay)
		}
	}

	return out, nil
}

func (c *Crawler) harvestAll(ctx context.Context, targets []novel.Novel) error {
	if len(targets) == 0 {
		c.log.Infof("no new novels to harvest")
		return nil
	}

	c.log.Infof("processing chapters for %d novels", len(targets))

	for i, n := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.log.Infof("novel %d/%d: %s", i+1, len(targets), n.Slug)
		c.harvestNovel(ctx, n)

		if i < len(targets)-1 {
			c.sleep(ctx, c.opts.NovelDelay)
		}
	}

	return ctx.Err()
}

// detailNovel folds the detail page over a listing summary. When the
// detail page cannot be fetched the summary alone is kept.
func (c *Crawler) detailNovel(ctx context.Context, summary novel.Novel) novel.Novel {
	detail, err := c.source.NovelDetail(ctx, summary.Slug)
	if err != nil {
		c.log.Errorf("detail page for %s: %v", summary.Slug, err)
		return summary
	}

	now := c.now()
	detail.ScrapedAt = now
	detail.LastUpdated = now

	return novel.MergeDetail(summary, *detail)
}

func (c *Crawler) merge(existing, incoming []novel.Chapter) []novel.Chapter {
	if c.opts.StrictDedup {
		return novel.MergeStrict(existing, incoming)
	}

	return novel.Merge(existing, incoming)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
