package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/ratelimit"
)

// RSSScraper handles newsletter and blog RSS/Atom feeds
type RSSScraper struct {
	parser  *gofeed.Parser
	limiter *ratelimit.Limiter
	config  Config
}

func NewRSSScraper(limiter *ratelimit.Limiter, config Config) *RSSScraper {
	parser := gofeed.NewParser()
	parser.UserAgent = config.UserAgent

	return &RSSScraper{
		parser:  parser,
		limiter: limiter,
		config:  config,
	}
}

func (s *RSSScraper) Name() string {
	return "rss"
}

func (s *RSSScraper) Scrape(ctx context.Context, src models.Source) ([]Item, error) {
	s.limiter.Wait(src.URL)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	feed, err := s.parser.ParseURLWithContext(src.URL, ctxWithTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", src.URL, err)
	}

	limit := maxItems(src, s.config)

	items := make([]Item, 0, len(feed.Items))
	for i, entry := range feed.Items {
		if i >= limit {
			break
		}

		publishedAt := time.Now()
		if entry.PublishedParsed != nil {
			publishedAt = *entry.PublishedParsed
		}

		// content:encoded when present, otherwise the description
		content := entry.Content
		if content == "" {
			content = entry.Description
		}

		author := feed.Title
		if entry.Author != nil && entry.Author.Name != "" {
			author = entry.Author.Name
		}

		externalID := entry.GUID
		if externalID == "" {
			externalID = entry.Link
		}

		mediaURLs := make([]string, 0)
		if entry.Image != nil && entry.Image.URL != "" {
			mediaURLs = append(mediaURLs, entry.Image.URL)
		}
		for _, enc := range entry.Enclosures {
			if enc.URL != "" {
				mediaURLs = append(mediaURLs, enc.URL)
			}
		}

		items = append(items, Item{
			ExternalID:  externalID,
			Title:       entry.Title,
			ContentText: stripHTML(content),
			URL:         entry.Link,
			Author:      author,
			PublishedAt: publishedAt,
			MediaURLs:   mediaURLs,
			Hashtags:    entry.Categories,
		})
	}

	return items, nil
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}
