package models

import "time"

// Source content types
const (
	SourceTwitter = "twitter"
	SourceYouTube = "youtube"
	SourceReddit  = "reddit"
	SourceRSS     = "newsletter_rss"
	SourceCustom  = "custom_url"
)

// Source activation status
const (
	SourceStatusActive = "active"
	SourceStatusPaused = "paused"
)

// Scrape run status
const (
	ScrapeStatusPending = "pending"
	ScrapeStatusRunning = "running"
	ScrapeStatusSuccess = "success"
	ScrapeStatusFailed  = "failed"
)

// Source is a content source owned by a user. At most one (user, url, type)
// triple exists.
type Source struct {
	ID                string       `json:"id"`
	UserID            string       `json:"userId"`
	Name              string       `json:"name"`
	Type              string       `json:"type"`
	URL               string       `json:"url"`
	Config            SourceConfig `json:"config"`
	Status            string       `json:"status"`
	LastScrapeStatus  string       `json:"lastScrapeStatus"`
	LastScrapeAt      *time.Time   `json:"lastScrapeAt,omitempty"`
	ItemsLastRun      int          `json:"itemsLastRun"`
	TotalItemsScraped int          `json:"totalItemsScraped"`
	ErrorMessage      string       `json:"errorMessage,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// SourceConfig holds per-type scrape settings
type SourceConfig struct {
	MaxItems  int    `json:"maxItems,omitempty"`
	Sort      string `json:"sort,omitempty"`      // reddit: "hot" or "top"
	Timeframe string `json:"timeframe,omitempty"` // reddit: "day", "week"
}

// CreateSourceParams are the caller-supplied fields for a new source
type CreateSourceParams struct {
	Name   string       `json:"name"`
	Type   string       `json:"type"`
	URL    string       `json:"url"`
	Config SourceConfig `json:"config"`
}

// UpdateSourceParams are the mutable fields of a source
type UpdateSourceParams struct {
	Name   *string       `json:"name,omitempty"`
	Status *string       `json:"status,omitempty"`
	Config *SourceConfig `json:"config,omitempty"`
}

// ScrapeRunResult records the outcome of one scrape attempt against a source
type ScrapeRunResult struct {
	Status       string
	ItemsAdded   int
	ErrorMessage string
}

// IsValidSourceKind reports whether t is a supported source type
func IsValidSourceKind(t string) bool {
	switch t {
	case SourceTwitter, SourceYouTube, SourceReddit, SourceRSS, SourceCustom:
		return true
	}
	return false
}

// ContentTypeFor maps a source type to the tag stored on its content items
func ContentTypeFor(sourceType string) string {
	switch sourceType {
	case SourceTwitter:
		return SourceTypeSocialPost
	case SourceYouTube:
		return SourceTypeVideo
	case SourceReddit:
		return SourceTypeForumPost
	case SourceRSS:
		return SourceTypeFeedArticle
	default:
		return SourceTypeGenericPage
	}
}
