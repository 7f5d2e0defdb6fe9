package scrape

import (
	"testing"
	"time"

	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/ratelimit"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Timeout != 30*time.Second {
		t.Errorf("DefaultConfig().Timeout = %v, want %v", config.Timeout, 30*time.Second)
	}
	if config.MaxItems != 50 {
		t.Errorf("DefaultConfig().MaxItems = %d, want %d", config.MaxItems, 50)
	}
	if config.UserAgent != "CreatorPulse/1.0" {
		t.Errorf("DefaultConfig().UserAgent = %q, want %q", config.UserAgent, "CreatorPulse/1.0")
	}
}

func TestRegistry_For(t *testing.T) {
	limiter := ratelimit.New(time.Second)
	registry := NewRegistry(limiter, DefaultConfig())

	tests := []struct {
		sourceType string
		wantName   string
	}{
		{models.SourceRSS, "rss"},
		{models.SourceYouTube, "youtube"},
		{models.SourceReddit, "reddit"},
		{models.SourceTwitter, "twitter"},
		{models.SourceCustom, "page"},
	}

	for _, tt := range tests {
		scraper, err := registry.For(models.Source{Type: tt.sourceType})
		if err != nil {
			t.Errorf("For(%q) returned error: %v", tt.sourceType, err)
			continue
		}
		if scraper.Name() != tt.wantName {
			t.Errorf("For(%q).Name() = %q, want %q", tt.sourceType, scraper.Name(), tt.wantName)
		}
	}
}

func TestRegistry_For_UnknownType(t *testing.T) {
	limiter := ratelimit.New(time.Second)
	registry := NewRegistry(limiter, DefaultConfig())

	if _, err := registry.For(models.Source{Type: "carrier-pigeon"}); err == nil {
		t.Error("For() should return error for unknown source type")
	}
}

func TestMaxItems(t *testing.T) {
	config := Config{MaxItems: 50}

	src := models.Source{}
	if got := maxItems(src, config); got != 50 {
		t.Errorf("maxItems() = %d, want default 50", got)
	}

	src.Config.MaxItems = 10
	if got := maxItems(src, config); got != 10 {
		t.Errorf("maxItems() = %d, want per-source 10", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q, want unchanged", got)
	}
	if got := truncate("a long piece of text", 6); got != "a long..." {
		t.Errorf("truncate() = %q, want %q", got, "a long...")
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"no markup", "no markup"},
		{"  <div>trimmed</div>  ", "trimmed"},
	}

	for _, tt := range tests {
		if got := stripHTML(tt.in); got != tt.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
