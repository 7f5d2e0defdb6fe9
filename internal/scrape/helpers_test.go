package scrape

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func TestExtractSubreddit(t *testing.T) {
	tests := []struct {
		url      string
		fallback string
		want     string
	}{
		{"https://www.reddit.com/r/golang", "", "golang"},
		{"https://www.reddit.com/r/golang/", "", "golang"},
		{"https://reddit.com/r/MachineLearning/hot", "", "MachineLearning"},
		{"", "r/webdev", "webdev"},
		{"golang", "", "golang"},
	}

	for _, tt := range tests {
		if got := extractSubreddit(tt.url, tt.fallback); got != tt.want {
			t.Errorf("extractSubreddit(%q, %q) = %q, want %q", tt.url, tt.fallback, got, tt.want)
		}
	}
}

func TestExtractHandle(t *testing.T) {
	tests := []struct {
		url      string
		fallback string
		want     string
	}{
		{"https://twitter.com/creator", "", "creator"},
		{"https://x.com/creator", "", "creator"},
		{"https://twitter.com/creator?lang=en", "", "creator"},
		{"https://twitter.com/creator/status/123", "", "creator"},
		{"", "@creator", "creator"},
		{"@creator", "", "creator"},
	}

	for _, tt := range tests {
		if got := extractHandle(tt.url, tt.fallback); got != tt.want {
			t.Errorf("extractHandle(%q, %q) = %q, want %q", tt.url, tt.fallback, got, tt.want)
		}
	}
}

func TestChannelFeedURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{
			url:  "https://www.youtube.com/channel/UCabc123",
			want: "https://www.youtube.com/feeds/videos.xml?channel_id=UCabc123",
		},
		{
			url:  "https://www.youtube.com/user/somecreator",
			want: "https://www.youtube.com/feeds/videos.xml?user=somecreator",
		},
		{
			url:  "https://www.youtube.com/feeds/videos.xml?channel_id=UCabc123",
			want: "https://www.youtube.com/feeds/videos.xml?channel_id=UCabc123",
		},
		{
			url:  "UCabc123",
			want: "https://www.youtube.com/feeds/videos.xml?channel_id=UCabc123",
		},
		{
			url:     "https://www.youtube.com/@somehandle",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		got, err := channelFeedURL(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("channelFeedURL(%q) should return error", tt.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("channelFeedURL(%q) returned error: %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("channelFeedURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://example.com/video", ""},
	}

	for _, tt := range tests {
		if got := extractVideoID(tt.url); got != tt.want {
			t.Errorf("extractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractHashtags(t *testing.T) {
	tags := extractHashtags("New video! #golang #backend tips inside")
	if len(tags) != 2 {
		t.Fatalf("extractHashtags() returned %d tags, want 2", len(tags))
	}
	if tags[0] != "golang" || tags[1] != "backend" {
		t.Errorf("extractHashtags() = %v, want [golang backend]", tags)
	}

	if tags := extractHashtags("no tags here"); len(tags) != 0 {
		t.Errorf("extractHashtags() = %v, want empty", tags)
	}
}

const samplePage = `
<html>
<head>
	<title>Understanding Queues</title>
	<meta name="author" content="Pat Writer">
	<meta property="article:published_time" content="2025-03-10T09:00:00Z">
</head>
<body>
	<article>
		<h1>Understanding Queues</h1>
		<p>Queues decouple producers from consumers and smooth out bursty load.
		This article walks through the tradeoffs of at-least-once delivery.</p>
		<img src="https://example.com/diagram.png">
		<img src="/relative/skipped.png">
	</article>
</body>
</html>`

func TestPageExtraction(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("failed to parse sample page: %v", err)
	}

	content := extractContent(doc)
	if !strings.Contains(content, "Queues decouple producers") {
		t.Errorf("extractContent() = %q, want article text", content)
	}

	if author := extractAuthor(doc); author != "Pat Writer" {
		t.Errorf("extractAuthor() = %q, want %q", author, "Pat Writer")
	}

	want := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if got := extractPublishedAt(doc); !got.Equal(want) {
		t.Errorf("extractPublishedAt() = %v, want %v", got, want)
	}

	images := extractImages(doc, 5)
	if len(images) != 1 || images[0] != "https://example.com/diagram.png" {
		t.Errorf("extractImages() = %v, want one absolute URL", images)
	}
}

func TestExtractContent_ShortContentFallsThrough(t *testing.T) {
	html := `<html><body><article>tiny</article><p>` + strings.Repeat("long paragraph text ", 10) + `</p></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	content := extractContent(doc)
	if !strings.Contains(content, "long paragraph text") {
		t.Errorf("extractContent() should fall through to a selector with enough text, got %q", content)
	}
}
