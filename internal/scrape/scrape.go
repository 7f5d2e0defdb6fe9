// Package scrape implements per-type content scrapers. Each scraper turns a
// configured source into a list of raw items; scoring and dedup happen at
// ingest, not here.
package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/ratelimit"
)

// Item is a raw scraped item before scoring and persistence
type Item struct {
	ExternalID  string
	Title       string
	ContentText string
	URL         string
	Author      string
	PublishedAt time.Time
	Engagement  models.Engagement
	MediaURLs   []string
	Hashtags    []string
}

// Scraper fetches raw items for a single source
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, src models.Source) ([]Item, error)
}

// Config holds shared scraper settings
type Config struct {
	Timeout    time.Duration
	MaxItems   int
	UserAgent  string
	ApifyToken string
}

// DefaultConfig returns the scraper defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		MaxItems:  50,
		UserAgent: "CreatorPulse/1.0",
	}
}

// Registry dispatches a source to the scraper for its type. Scrapers are
// stateless per type; per-source settings travel on the Source itself.
type Registry struct {
	scrapers map[string]Scraper
}

// NewRegistry builds the scraper set for all supported source types
func NewRegistry(limiter *ratelimit.Limiter, cfg Config) *Registry {
	return &Registry{
		scrapers: map[string]Scraper{
			models.SourceRSS:     NewRSSScraper(limiter, cfg),
			models.SourceYouTube: NewYouTubeScraper(limiter, cfg),
			models.SourceReddit:  NewRedditScraper(limiter, cfg),
			models.SourceTwitter: NewTwitterScraper(limiter, cfg),
			models.SourceCustom:  NewPageScraper(limiter, cfg),
		},
	}
}

// For returns the scraper handling the source's type
func (r *Registry) For(src models.Source) (Scraper, error) {
	s, ok := r.scrapers[src.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported source type %q", src.Type)
	}
	return s, nil
}

// maxItems resolves the per-source item cap against the shared default
func maxItems(src models.Source, cfg Config) int {
	if src.Config.MaxItems > 0 {
		return src.Config.MaxItems
	}
	return cfg.MaxItems
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
