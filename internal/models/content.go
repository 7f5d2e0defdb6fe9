package models

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Source types a content item can originate from
const (
	SourceTypeSocialPost  = "social-post"
	SourceTypeVideo       = "video"
	SourceTypeForumPost   = "forum-post"
	SourceTypeFeedArticle = "feed-article"
	SourceTypeGenericPage = "generic-page"
)

// ContentItem is a single piece of scraped content. Items are immutable after
// ingest; the (SourceID, ExternalID) pair is the dedup key.
type ContentItem struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	SourceID        string     `json:"sourceId"`
	ExternalID      string     `json:"externalId"`
	Title           string     `json:"title"`
	ContentText     string     `json:"contentText"`
	URL             string     `json:"url"`
	Author          string     `json:"author,omitempty"`
	PublishedAt     time.Time  `json:"publishedAt"`
	Engagement      Engagement `json:"engagement"`
	EngagementScore float64    `json:"engagementScore"`
	MediaURLs       []string   `json:"mediaUrls"`
	Hashtags        []string   `json:"hashtags"`
	SourceType      string     `json:"sourceType"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Engagement holds raw engagement counters as reported by the source.
// Missing counters are zero.
type Engagement struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
	Views    int `json:"views"`
}

// Score normalizes raw counters into a single comparable value. The formula is
// fixed so scores stay comparable across items and recomputable from the
// stored counters. Views are not part of the formula.
func (e Engagement) Score() float64 {
	return (float64(e.Likes) + float64(e.Shares)*2 + float64(e.Comments)*1.5) / 1000
}

// IsValidSourceType reports whether t is one of the known source type tags
func IsValidSourceType(t string) bool {
	switch t {
	case SourceTypeSocialPost, SourceTypeVideo, SourceTypeForumPost, SourceTypeFeedArticle, SourceTypeGenericPage:
		return true
	}
	return false
}

// NormalizeTitle cleans a scraped title: unicode NFC normalization, collapsed
// whitespace, trimmed ends.
func NormalizeTitle(title string) string {
	title = norm.NFC.String(title)
	return strings.Join(strings.Fields(title), " ")
}
