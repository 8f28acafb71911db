package novel

import "time"

// Novel is one catalog entry. Listing cards fill the summary fields,
// the detail page fills the rest.
type Novel struct {
	ID            string            `json:"id"`
	Slug          string            `json:"slug"`
	Title         string            `json:"title"`
	Author        string            `json:"author,omitempty"`
	CoverURL      string            `json:"cover_url,omitempty"`
	Rating        *float64          `json:"rating"`
	Rank          *int              `json:"rank"`
	ChaptersCount *int              `json:"chapters_count"`
	Status        string            `json:"status,omitempty"`
	Genres        []string          `json:"genres,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	Stats         map[string]string `json:"stats,omitempty"`
	URL           string            `json:"url"`
	ScrapedAt     time.Time         `json:"scraped_at,omitzero"`
	FirstScraped  time.Time         `json:"first_scraped,omitzero"`
	LastUpdated   time.Time         `json:"last_updated,omitzero"`
}

// Chapter carries both the stub from the chapter listing and, once
// fetched, the body text. Pointer fields stay null until filled.
type Chapter struct {
	ID               *string    `json:"id"`
	Number           string     `json:"number"`
	Title            string     `json:"title"`
	URL              string     `json:"url"`
	OriginalTime     string     `json:"original_time,omitempty"`
	NovelSlug        string     `json:"novel_slug"`
	Content          *string    `json:"content"`
	ScrapedAt        *time.Time `json:"scraped_at"`
	ContentScrapedAt *time.Time `json:"content_scraped_at"`
	Error            string     `json:"error,omitempty"`
}

type Metadata struct {
	ScrapedAt     time.Time `json:"scraped_at"`
	TotalChapters int       `json:"total_chapters"`
	NovelSlug     string    `json:"novel_slug"`
	NovelTitle    string    `json:"novel_title,omitempty"`
	RunID         string    `json:"run_id,omitempty"`
	Progress      string    `json:"current_progress,omitempty"`
	IsPartialSave bool      `json:"is_partial_save,omitempty"`
	IsComplete    bool      `json:"is_complete,omitempty"`
	FirstScraped  time.Time `json:"first_scraped,omitzero"`
	LastUpdated   time.Time `json:"last_updated,omitzero"`
}

// Dataset is the on-disk document for one novel.
type Dataset struct {
	Metadata  Metadata  `json:"metadata"`
	NovelInfo Novel     `json:"novel_info"`
	Chapters  []Chapter `json:"chapters"`
}

// Index is the catalog list persisted as novels.json.
type Index []Novel

func (ix Index) Find(slug string) (Novel, bool) {
	for _, n := range ix {
		if n.Slug == slug {
			return n, true
		}
	}

	return Novel{}, false
}

func (ix Index) Contains(slug string) bool {
	_, ok := ix.Find(slug)
	return ok
}

// Upsert replaces the entry with the same slug, or appends. A replaced
// entry keeps its original first_scraped stamp.
func (ix Index) Upsert(n Novel) Index {
	for i, cur := range ix {
		if cur.Slug == n.Slug {
			if !cur.FirstScraped.IsZero() {
				n.FirstScraped = cur.FirstScraped
			}
			out := make(Index, len(ix))
			copy(out, ix)
			out[i] = n

			return out
		}
	}

	return append(append(Index{}, ix...), n)
}

// MergeDetail folds a detail-page record over a listing summary. Detail
// fields win; chapters_count and first_scraped only exist on the
// summary and survive as-is.
func MergeDetail(summary, detail Novel) Novel {
	out := detail
	out.ChaptersCount = summary.ChaptersCount
	out.FirstScraped = summary.FirstScraped

	return out
}
