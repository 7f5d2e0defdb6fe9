// Package digest builds newsletter drafts from a user's content pool: tiered
// categorization by recency and engagement, then AI composition.
package digest

import (
	"errors"
	"sort"
	"time"

	"github.com/creatorpulse/server/internal/models"
)

// Fixed categorization windows and caps. The tiers drive the newsletter's
// 70/20/10 section weighting.
const (
	primaryWindow   = 48 * time.Hour
	evergreenWindow = 7 * 24 * time.Hour
	trendingWindow  = 72 * time.Hour

	primaryCap   = 15
	evergreenCap = 5
	trendingCap  = 3

	// minTotalItems is the floor below which draft generation aborts
	minTotalItems = 5
)

// ErrInsufficientContent means the categorized pool is below the item floor.
// The caller should scrape more content and retry; this is not a crash.
var ErrInsufficientContent = errors.New("not enough content to generate draft")

// Tiers is the categorized content pool
type Tiers struct {
	Primary   []models.ContentItem
	Evergreen []models.ContentItem
	Trending  []models.ContentItem
}

// Total returns the combined tier size
func (t Tiers) Total() int {
	return len(t.Primary) + len(t.Evergreen) + len(t.Trending)
}

// Categorize partitions a user's content pool into the three tiers:
//
//   - Primary: published within 48h, newest first (score breaks ties), top 15
//   - Evergreen: 48h to 7d old, highest score first, top 5
//   - Trending: published within 72h, highest score first, top 3
//
// Trending overlaps Primary; an item can legitimately appear in both. Fewer
// than 5 items across all tiers returns ErrInsufficientContent.
func Categorize(pool []models.ContentItem, now time.Time) (Tiers, error) {
	primaryCutoff := now.Add(-primaryWindow)
	evergreenCutoff := now.Add(-evergreenWindow)
	trendingCutoff := now.Add(-trendingWindow)

	var tiers Tiers
	for _, item := range pool {
		if !item.PublishedAt.Before(primaryCutoff) {
			tiers.Primary = append(tiers.Primary, item)
		} else if !item.PublishedAt.Before(evergreenCutoff) {
			tiers.Evergreen = append(tiers.Evergreen, item)
		}
		if !item.PublishedAt.Before(trendingCutoff) {
			tiers.Trending = append(tiers.Trending, item)
		}
	}

	sort.SliceStable(tiers.Primary, func(i, j int) bool {
		a, b := tiers.Primary[i], tiers.Primary[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.EngagementScore > b.EngagementScore
	})
	sort.SliceStable(tiers.Evergreen, func(i, j int) bool {
		return tiers.Evergreen[i].EngagementScore > tiers.Evergreen[j].EngagementScore
	})
	sort.SliceStable(tiers.Trending, func(i, j int) bool {
		return tiers.Trending[i].EngagementScore > tiers.Trending[j].EngagementScore
	})

	tiers.Primary = capTier(tiers.Primary, primaryCap)
	tiers.Evergreen = capTier(tiers.Evergreen, evergreenCap)
	tiers.Trending = capTier(tiers.Trending, trendingCap)

	if tiers.Total() < minTotalItems {
		return tiers, ErrInsufficientContent
	}

	return tiers, nil
}

func capTier(items []models.ContentItem, limit int) []models.ContentItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
