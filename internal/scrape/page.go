package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/ratelimit"
)

// PageScraper extracts a single item from an arbitrary web page. A page has
// no natural item ID, so the external ID is derived from the URL; re-scraping
// the same page dedups to one content item.
type PageScraper struct {
	limiter *ratelimit.Limiter
	config  Config
	client  *http.Client
}

// contentSelectors are tried in order until one yields enough text
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".content",
	".post-content",
	".article-content",
	"#content",
	"p",
}

func NewPageScraper(limiter *ratelimit.Limiter, config Config) *PageScraper {
	return &PageScraper{
		limiter: limiter,
		config:  config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (s *PageScraper) Name() string {
	return "page"
}

func (s *PageScraper) Scrape(ctx context.Context, src models.Source) ([]Item, error) {
	s.limiter.Wait(src.URL)

	req, err := http.NewRequestWithContext(ctx, "GET", src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
		title = strings.TrimSpace(title)
	}
	if title == "" {
		return nil, fmt.Errorf("no title found on %s", src.URL)
	}

	item := Item{
		ExternalID:  uuid.NewSHA1(uuid.NameSpaceURL, []byte(src.URL)).String(),
		Title:       title,
		ContentText: extractContent(doc),
		URL:         src.URL,
		Author:      extractAuthor(doc),
		PublishedAt: extractPublishedAt(doc),
		MediaURLs:   extractImages(doc, 5),
		Hashtags:    []string{},
	}

	return []Item{item}, nil
}

func extractContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}

		parts := make([]string, 0, sel.Length())
		sel.Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})

		content := strings.Join(parts, " ")
		if len(content) > 100 {
			return content
		}
	}
	return ""
}

func extractAuthor(doc *goquery.Document) string {
	if author, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok {
		return strings.TrimSpace(author)
	}
	if author := strings.TrimSpace(doc.Find(`[rel="author"]`).First().Text()); author != "" {
		return author
	}
	return strings.TrimSpace(doc.Find(".author").First().Text())
}

func extractPublishedAt(doc *goquery.Document) time.Time {
	candidates := []string{}
	if v, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find("time").First().Attr("datetime"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find(`[itemprop="datePublished"]`).Attr("content"); ok {
		candidates = append(candidates, v)
	}

	for _, candidate := range candidates {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

func extractImages(doc *goquery.Document, limit int) []string {
	urls := make([]string, 0, limit)
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if ok && strings.HasPrefix(src, "http") {
			urls = append(urls, src)
		}
		return len(urls) < limit
	})
	return urls
}
