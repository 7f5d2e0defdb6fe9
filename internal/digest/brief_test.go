package digest

import (
	"testing"
	"time"

	"github.com/creatorpulse/server/internal/models"
)

func TestFormatEngagement(t *testing.T) {
	tests := []struct {
		name string
		e    models.Engagement
		want string
	}{
		{"all counters", models.Engagement{Views: 10000, Likes: 1500, Comments: 42}, "10.0K views, 1.5K likes, 42 comments"},
		{"only likes", models.Engagement{Likes: 7}, "7 likes"},
		{"zeros omitted", models.Engagement{Views: 500, Likes: 0, Comments: 0}, "500 views"},
		{"no data", models.Engagement{}, "No engagement data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatEngagement(tt.e); got != tt.want {
				t.Errorf("formatEngagement() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5K"},
		{1000, "1.0K"},
		{999999, "1000.0K"},
		{2300000, "2.3M"},
	}

	for _, tt := range tests {
		if got := formatCount(tt.n); got != tt.want {
			t.Errorf("formatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTimeSincePublished(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Minute, "Less than 1 hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{30 * time.Hour, "1 day ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{15 * 24 * time.Hour, "2 weeks ago"},
	}

	for _, tt := range tests {
		if got := timeSincePublished(now.Add(-tt.age), now); got != tt.want {
			t.Errorf("timeSincePublished(-%v) = %q, want %q", tt.age, got, tt.want)
		}
	}

	if got := timeSincePublished(time.Time{}, now); got != "Unknown" {
		t.Errorf("timeSincePublished(zero) = %q, want Unknown", got)
	}
}
