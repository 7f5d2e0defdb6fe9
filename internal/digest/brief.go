package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/creatorpulse/server/internal/models"
)

// formatEngagement renders an item's counters for the content brief. Only
// non-zero counters are mentioned.
func formatEngagement(e models.Engagement) string {
	parts := make([]string, 0, 3)
	if e.Views > 0 {
		parts = append(parts, formatCount(e.Views)+" views")
	}
	if e.Likes > 0 {
		parts = append(parts, formatCount(e.Likes)+" likes")
	}
	if e.Comments > 0 {
		parts = append(parts, formatCount(e.Comments)+" comments")
	}
	if len(parts) == 0 {
		return "No engagement data"
	}
	return strings.Join(parts, ", ")
}

// formatCount abbreviates large numbers: 1500 -> "1.5K", 2300000 -> "2.3M"
func formatCount(n int) string {
	switch {
	case n >= 1000000:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	case n >= 1000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// timeSincePublished renders a human-readable age for the content brief
func timeSincePublished(publishedAt, now time.Time) string {
	if publishedAt.IsZero() {
		return "Unknown"
	}

	hours := int(now.Sub(publishedAt).Hours())
	days := hours / 24

	switch {
	case hours < 1:
		return "Less than 1 hour ago"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	case days == 1:
		return "1 day ago"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return fmt.Sprintf("%d weeks ago", days/7)
	}
}

// truncateText cuts a string to at most maxLen characters
func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
