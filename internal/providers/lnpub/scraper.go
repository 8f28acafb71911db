package lnpub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/brogergvhs/noveld/internal/novel"
	"github.com/brogergvhs/noveld/internal/util"
)

// Scraper reads the lightnovelpub-style catalog layout: recommendation
// cards on /genre-all/, a detail page per novel and paginated chapter
// listings under /novel/<slug>/chapters/.
type Scraper struct {
	client  *http.Client
	baseURL string
	order   string
	status  string
}

func NewScraper(c *http.Client, baseURL, order, status string) *Scraper {
	return &Scraper{
		client:  c,
		baseURL: strings.TrimRight(baseURL, "/"),
		order:   order,
		status:  status,
	}
}

var (
	ratingRe   = regexp.MustCompile(`★\s*([\d.]+)`)
	chaptersRe = regexp.MustCompile(`(\d+)\s*chapters`)
	rankRe     = regexp.MustCompile(`RANK\s*(\d+)`)
	authorRe   = regexp.MustCompile(`Author:\s*(.+)`)
	onclickRe  = regexp.MustCompile(`location\.href='([^']+)'`)
)

func (s *Scraper) listingURL(page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("order", s.order)
	q.Set("status", s.status)

	return s.baseURL + "/genre-all/?" + q.Encode()
}

func (s *Scraper) detailURL(slug string) string {
	return s.baseURL + "/novel/" + slug + "/"
}

func (s *Scraper) chaptersURL(slug string, page int) string {
	u := s.baseURL + "/novel/" + slug + "/chapters/"
	if page > 1 {
		u += "?page=" + strconv.Itoa(page)
	}

	return u
}

func (s *Scraper) fetchDOM(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, target)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *Scraper) NovelListing(ctx context.Context, page int) ([]novel.Novel, error) {
	doc, err := s.fetchDOM(ctx, s.listingURL(page))
	if err != nil {
		return nil, err
	}

	var out []novel.Novel
	doc.Find(".recommendation-card").Each(func(_ int, card *goquery.Selection) {
		if n, ok := s.extractCard(card); ok {
			out = append(out, n)
		}
	})

	return out, nil
}

// extractCard reads one listing card. Cards without a title are
// rejected; any other missing field just stays at its zero value.
func (s *Scraper) extractCard(card *goquery.Selection) (novel.Novel, bool) {
	title := strings.TrimSpace(card.Find(".card-title").First().Text())
	if title == "" {
		return novel.Novel{}, false
	}

	var slug, novelURL string
	if href, ok := card.Find("a.card-cover-link").First().Attr("href"); ok {
		parts := strings.Split(strings.Trim(href, "/"), "/")
		slug = parts[len(parts)-1]
		novelURL = resolveURL(s.baseURL, href)
	} else {
		slug = util.Slugify(title)
	}

	n := novel.Novel{
		ID:    slug,
		Slug:  slug,
		Title: title,
		URL:   novelURL,
	}

	if src, ok := card.Find(".card-cover img").First().Attr("src"); ok {
		n.CoverURL = resolveURL(s.baseURL, src)
	}

	if m := ratingRe.FindStringSubmatch(card.Find(".card-rating").Text()); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			n.Rating = &f
		}
	}

	if m := chaptersRe.FindStringSubmatch(card.Find(".chapters").Text()); m != nil {
		if c, err := strconv.Atoi(m[1]); err == nil {
			n.ChaptersCount = &c
		}
	}

	if m := rankRe.FindStringSubmatch(card.Find(".card-rank").Text()); m != nil {
		if r, err := strconv.Atoi(m[1]); err == nil {
			n.Rank = &r
		}
	}

	return n, true
}

func (s *Scraper) NovelDetail(ctx context.Context, slug string) (*novel.Novel, error) {
	doc, err := s.fetchDOM(ctx, s.detailURL(slug))
	if err != nil {
		return nil, err
	}

	n := &novel.Novel{
		ID:    slug,
		Slug:  slug,
		Title: strings.TrimSpace(doc.Find(".novel-title").First().Text()),
		URL:   s.detailURL(slug),
	}

	if m := authorRe.FindStringSubmatch(strings.TrimSpace(doc.Find(".novel-author").Text())); m != nil {
		n.Author = strings.TrimSpace(m[1])
	}

	if src, ok := doc.Find(".novel-cover").First().Attr("src"); ok {
		n.CoverURL = resolveURL(s.baseURL, src)
	}

	stats := map[string]string{}
	doc.Find(".stat-box").Each(func(_ int, box *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(box.Find(".stat-label").Text()))
		value := strings.TrimSpace(box.Find(".stat-value").Text())
		if label != "" && value != "" {
			stats[label] = value
		}
	})
	if len(stats) > 0 {
		n.Stats = stats
	}

	n.Status = strings.TrimSpace(doc.Find(".status-badge").First().Text())

	doc.Find(".genre-tag").Each(func(_ int, tag *goquery.Selection) {
		if g := strings.TrimSpace(tag.Text()); g != "" {
			n.Genres = append(n.Genres, g)
		}
	})

	n.Summary = strings.TrimSpace(doc.Find(".summary-content").First().Text())

	if m := ratingRe.FindStringSubmatch(doc.Find(".card-rating").Text()); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			n.Rating = &f
		}
	}

	if m := rankRe.FindStringSubmatch(doc.Find(".rank-badge").Text()); m != nil {
		if r, err := strconv.Atoi(m[1]); err == nil {
			n.Rank = &r
		}
	}

	return n, nil
}

func (s *Scraper) ChapterListing(ctx context.Context, slug string, page int) ([]novel.Chapter, bool, error) {
	doc, err := s.fetchDOM(ctx, s.chaptersURL(slug, page))
	if err != nil {
		return nil, false, err
	}

	var out []novel.Chapter
	doc.Find(".chapter-card").Each(func(_ int, card *goquery.Selection) {
		out = append(out, s.extractChapterCard(card, slug))
	})

	hasNext := false
	doc.Find(`.page-link[title="Next Page"]`).Each(func(_ int, link *goquery.Selection) {
		text := link.Text()
		if strings.Contains(text, "Next") || strings.Contains(text, "›") {
			hasNext = true
		}
	})

	return out, hasNext, nil
}

// extractChapterCard builds a stub from one chapter card. A card with
// no usable link yields a stub with an empty URL and no id; the caller
// records those as unfetchable rather than dropping them.
func (s *Scraper) extractChapterCard(card *goquery.Selection, slug string) novel.Chapter {
	c := novel.Chapter{
		Number:       strings.TrimSpace(card.Find(".chapter-number").First().Text()),
		Title:        strings.TrimSpace(card.Find(".chapter-title").First().Text()),
		OriginalTime: strings.TrimSpace(card.Find(".chapter-time").First().Text()),
		NovelSlug:    slug,
	}

	var href string
	if onclick, ok := card.Attr("onclick"); ok {
		if m := onclickRe.FindStringSubmatch(onclick); m != nil {
			href = m[1]
		}
	}
	if href == "" {
		href, _ = card.Find("a").First().Attr("href")
	}

	if href != "" {
		c.URL = resolveURL(s.baseURL, href)
		if id := chapterIDFromURL(c.URL); id != "" {
			c.ID = &id
		}
	}

	return c
}

// chapterIDFromURL pulls the trailing id out of .../chapter/<id> paths.
func chapterIDFromURL(chapterURL string) string {
	u, err := url.Parse(chapterURL)
	if err != nil {
		return ""
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 && parts[len(parts)-2] == "chapter" {
		return parts[len(parts)-1]
	}

	return ""
}

func (s *Scraper) ChapterBody(ctx context.Context, chapterURL string) (string, error) {
	doc, err := s.fetchDOM(ctx, chapterURL)
	if err != nil {
		return "", err
	}

	sel := doc.Find(".chapter-text").First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("no chapter text element at %s", chapterURL)
	}

	sel.Find("script, style").Remove()

	return collectText(sel), nil
}

// collectText joins the trimmed text nodes under a selection with
// newlines, skipping whitespace-only nodes.
func collectText(sel *goquery.Selection) string {
	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}

	return strings.Join(parts, "\n")
}

func resolveURL(baseURL, href string) string {
	if href == "" {
		return baseURL
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(baseURL)
	if err != nil {
		return href
	}

	return b.ResolveReference(u).String()
}
