package models

import (
	"math"
	"testing"
)

func TestEngagement_Score(t *testing.T) {
	tests := []struct {
		name       string
		engagement Engagement
		want       float64
	}{
		{
			name:       "documented formula",
			engagement: Engagement{Likes: 100, Shares: 10, Comments: 20},
			want:       0.15,
		},
		{
			name:       "zero counters",
			engagement: Engagement{},
			want:       0,
		},
		{
			name:       "views are excluded",
			engagement: Engagement{Likes: 500, Views: 1000000},
			want:       0.5,
		},
		{
			name:       "comments weighted 1.5",
			engagement: Engagement{Comments: 1000},
			want:       1.5,
		},
		{
			name:       "shares weighted 2",
			engagement: Engagement{Shares: 1000},
			want:       2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.engagement.Score()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngagement_ScoreDeterministic(t *testing.T) {
	e := Engagement{Likes: 42, Shares: 7, Comments: 13, Views: 9000}
	first := e.Score()
	for i := 0; i < 100; i++ {
		if e.Score() != first {
			t.Fatal("Score() is not deterministic for fixed counters")
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hello   World  ", "Hello World"},
		{"Tabs\tand\nnewlines", "Tabs and newlines"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		sourceType string
		want       string
	}{
		{SourceTwitter, SourceTypeSocialPost},
		{SourceYouTube, SourceTypeVideo},
		{SourceReddit, SourceTypeForumPost},
		{SourceRSS, SourceTypeFeedArticle},
		{SourceCustom, SourceTypeGenericPage},
		{"unknown", SourceTypeGenericPage},
	}

	for _, tt := range tests {
		if got := ContentTypeFor(tt.sourceType); got != tt.want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", tt.sourceType, got, tt.want)
		}
	}
}
