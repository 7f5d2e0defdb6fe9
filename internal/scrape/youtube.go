package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/ratelimit"
)

// YouTubeScraper fetches videos from YouTube channel feeds. The feed carries
// view counts and rating counts in its media extensions, which map onto the
// views and likes counters.
type YouTubeScraper struct {
	parser  *gofeed.Parser
	limiter *ratelimit.Limiter
	config  Config
}

func NewYouTubeScraper(limiter *ratelimit.Limiter, config Config) *YouTubeScraper {
	parser := gofeed.NewParser()
	parser.UserAgent = config.UserAgent

	return &YouTubeScraper{
		parser:  parser,
		limiter: limiter,
		config:  config,
	}
}

func (s *YouTubeScraper) Name() string {
	return "youtube"
}

func (s *YouTubeScraper) Scrape(ctx context.Context, src models.Source) ([]Item, error) {
	feedURL, err := channelFeedURL(src.URL)
	if err != nil {
		return nil, err
	}

	s.limiter.Wait("youtube.com")

	ctxWithTimeout, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	feed, err := s.parser.ParseURLWithContext(feedURL, ctxWithTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YouTube feed %s: %w", feedURL, err)
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

		author := feed.Title
		if entry.Author != nil && entry.Author.Name != "" {
			author = entry.Author.Name
		}

		videoID := extractVideoID(entry.Link)
		externalID := videoID
		if externalID == "" {
			externalID = entry.Link
		}

		description, views, likes, thumbnail := mediaGroupDetails(entry)

		mediaURLs := make([]string, 0, 1)
		if thumbnail != "" {
			mediaURLs = append(mediaURLs, thumbnail)
		} else if videoID != "" {
			mediaURLs = append(mediaURLs, fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", videoID))
		}

		items = append(items, Item{
			ExternalID:  externalID,
			Title:       entry.Title,
			ContentText: description,
			URL:         entry.Link,
			Author:      author,
			PublishedAt: publishedAt,
			Engagement: models.Engagement{
				Likes: likes,
				Views: views,
			},
			MediaURLs: mediaURLs,
			Hashtags:  extractHashtags(description),
		})
	}

	return items, nil
}

// mediaGroupDetails pulls the description, view count, rating count, and
// thumbnail out of the entry's media:group extension.
func mediaGroupDetails(entry *gofeed.Item) (description string, views, likes int, thumbnail string) {
	groups, ok := entry.Extensions["media"]["group"]
	if !ok || len(groups) == 0 {
		description = entry.Description
		return
	}
	group := groups[0]

	if descs, ok := group.Children["description"]; ok && len(descs) > 0 {
		description = descs[0].Value
	}
	if description == "" {
		description = entry.Description
	}

	if thumbs, ok := group.Children["thumbnail"]; ok && len(thumbs) > 0 {
		thumbnail = thumbs[0].Attrs["url"]
	}

	communities, ok := group.Children["community"]
	if !ok || len(communities) == 0 {
		return
	}
	community := communities[0]

	if stats, ok := community.Children["statistics"]; ok && len(stats) > 0 {
		views, _ = strconv.Atoi(stats[0].Attrs["views"])
	}
	if ratings, ok := community.Children["starRating"]; ok && len(ratings) > 0 {
		likes, _ = strconv.Atoi(ratings[0].Attrs["count"])
	}
	return
}

// channelFeedURL converts a channel URL into its videos feed URL
func channelFeedURL(url string) (string, error) {
	if strings.Contains(url, "feeds/videos.xml") {
		return url, nil
	}

	if m := channelIDRe.FindStringSubmatch(url); len(m) > 1 {
		return "https://www.youtube.com/feeds/videos.xml?channel_id=" + m[1], nil
	}
	if m := legacyUserRe.FindStringSubmatch(url); len(m) > 2 {
		return "https://www.youtube.com/feeds/videos.xml?user=" + m[2], nil
	}
	if strings.HasPrefix(url, "UC") && !strings.Contains(url, "/") {
		return "https://www.youtube.com/feeds/videos.xml?channel_id=" + url, nil
	}

	return "", fmt.Errorf("cannot derive feed URL for YouTube channel %q (use a /channel/ or /user/ URL)", url)
}

var (
	channelIDRe  = regexp.MustCompile(`channel/([a-zA-Z0-9_-]+)`)
	legacyUserRe = regexp.MustCompile(`/(c|user)/([a-zA-Z0-9_-]+)`)
	videoIDRe    = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]+)`)
	hashtagRe    = regexp.MustCompile(`#[a-zA-Z0-9_]+`)
)

func extractVideoID(url string) string {
	if m := videoIDRe.FindStringSubmatch(url); len(m) > 1 {
		return m[1]
	}
	return ""
}

func extractHashtags(text string) []string {
	matches := hashtagRe.FindAllString(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.TrimPrefix(m, "#"))
	}
	return tags
}
