package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/ratelimit"
)

// RedditScraper fetches posts from a subreddit's public JSON listing
type RedditScraper struct {
	limiter *ratelimit.Limiter
	config  Config
	client  *http.Client
}

type redditResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Selftext  string  `json:"selftext"`
	Author    string  `json:"author"`
	Permalink string  `json:"permalink"`
	Created   float64 `json:"created_utc"`
	Score     int     `json:"score"`
	NumComms  int     `json:"num_comments"`
	Thumbnail string  `json:"thumbnail"`
	Flair     string  `json:"link_flair_text"`
}

func NewRedditScraper(limiter *ratelimit.Limiter, config Config) *RedditScraper {
	return &RedditScraper{
		limiter: limiter,
		config:  config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (s *RedditScraper) Name() string {
	return "reddit"
}

func (s *RedditScraper) Scrape(ctx context.Context, src models.Source) ([]Item, error) {
	subreddit := extractSubreddit(src.URL, src.Name)
	if subreddit == "" {
		return nil, fmt.Errorf("cannot determine subreddit from %q", src.URL)
	}

	s.limiter.Wait("reddit.com")

	listing := src.Config.Sort
	if listing != "top" && listing != "new" {
		listing = "hot"
	}

	url := fmt.Sprintf("https://www.reddit.com/r/%s/%s.json?limit=%d", subreddit, listing, maxItems(src, s.config))
	if listing == "top" {
		timeframe := src.Config.Timeframe
		if timeframe == "" {
			timeframe = "day"
		}
		url += "&t=" + timeframe
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reddit posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned status %d", resp.StatusCode)
	}

	var data redditResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode reddit response: %w", err)
	}

	items := make([]Item, 0, len(data.Data.Children))
	for _, child := range data.Data.Children {
		post := child.Data

		mediaURLs := make([]string, 0, 1)
		if post.Thumbnail != "self" && post.Thumbnail != "default" && post.Thumbnail != "nsfw" && post.Thumbnail != "" {
			mediaURLs = append(mediaURLs, post.Thumbnail)
		}

		hashtags := make([]string, 0, 1)
		if post.Flair != "" {
			hashtags = append(hashtags, post.Flair)
		}

		items = append(items, Item{
			ExternalID:  post.ID,
			Title:       post.Title,
			ContentText: post.Selftext,
			URL:         "https://www.reddit.com" + post.Permalink,
			Author:      post.Author,
			PublishedAt: time.Unix(int64(post.Created), 0),
			Engagement: models.Engagement{
				Likes:    post.Score,
				Comments: post.NumComms,
			},
			MediaURLs: mediaURLs,
			Hashtags:  hashtags,
		})
	}

	return items, nil
}

var subredditRe = regexp.MustCompile(`/r/([^/.\s]+)`)

// extractSubreddit extracts the subreddit name from a Reddit URL
func extractSubreddit(url, fallbackName string) string {
	if m := subredditRe.FindStringSubmatch(url); len(m) > 1 {
		return m[1]
	}

	// Fallback: name like "r/golang"
	if strings.HasPrefix(fallbackName, "r/") {
		return strings.TrimPrefix(fallbackName, "r/")
	}
	if !strings.Contains(url, "/") && url != "" {
		return url
	}

	return fallbackName
}
