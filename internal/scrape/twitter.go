package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/ratelimit"
)

const (
	twitterActorID    = "apidojo~twitter-user-scraper"
	apifyBaseURL      = "https://api.apify.com/v2"
	apifyPollInterval = 5 * time.Second
	apifyMaxPolls     = 24
)

// TwitterScraper fetches account data through the Apify actor API. The actor
// runs asynchronously: start a run, poll until it settles, then read its
// dataset.
type TwitterScraper struct {
	limiter *ratelimit.Limiter
	config  Config
	client  *http.Client
}

type apifyRunResponse struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

type apifyTwitterUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	UserName        string `json:"userName"`
	Description     string `json:"description"`
	URL             string `json:"url"`
	TwitterURL      string `json:"twitterUrl"`
	CreatedAt       string `json:"createdAt"`
	FavouritesCount int    `json:"favouritesCount"`
	StatusesCount   int    `json:"statusesCount"`
	Followers       int    `json:"followers"`
	ProfilePicture  string `json:"profilePicture"`
}

func NewTwitterScraper(limiter *ratelimit.Limiter, config Config) *TwitterScraper {
	return &TwitterScraper{
		limiter: limiter,
		config:  config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (s *TwitterScraper) Name() string {
	return "twitter"
}

func (s *TwitterScraper) Scrape(ctx context.Context, src models.Source) ([]Item, error) {
	if s.config.ApifyToken == "" {
		return nil, fmt.Errorf("twitter scraping requires APIFY_TOKEN")
	}

	handle := extractHandle(src.URL, src.Name)
	if handle == "" {
		return nil, fmt.Errorf("cannot determine handle from %q", src.URL)
	}

	s.limiter.Wait("api.apify.com")

	limit := maxItems(src, s.config)
	if limit < 5 {
		// The actor rejects smaller requests
		limit = 5
	}

	input := map[string]interface{}{
		"twitterHandles":          []string{handle, handle, handle, handle, handle},
		"getFollowers":            false,
		"getFollowing":            false,
		"getRetweeters":           false,
		"includeUnavailableUsers": false,
		"maxItems":                limit,
	}

	datasetID, err := s.runActor(ctx, twitterActorID, input)
	if err != nil {
		return nil, err
	}

	var users []apifyTwitterUser
	if err := s.getJSON(ctx, fmt.Sprintf("%s/datasets/%s/items?token=%s", apifyBaseURL, datasetID, s.config.ApifyToken), &users); err != nil {
		return nil, fmt.Errorf("failed to fetch actor dataset: %w", err)
	}

	items := make([]Item, 0, len(users))
	for _, user := range users {
		publishedAt := time.Now()
		if t, err := time.Parse(time.RubyDate, user.CreatedAt); err == nil {
			publishedAt = t
		} else if t, err := time.Parse(time.RFC3339, user.CreatedAt); err == nil {
			publishedAt = t
		}

		url := user.URL
		if url == "" {
			url = user.TwitterURL
		}
		if url == "" {
			url = "https://twitter.com/" + user.UserName
		}

		externalID := user.ID
		if externalID == "" {
			externalID = user.UserName
		}

		author := user.UserName
		if author == "" {
			author = handle
		}

		mediaURLs := make([]string, 0, 1)
		if user.ProfilePicture != "" {
			mediaURLs = append(mediaURLs, user.ProfilePicture)
		}

		items = append(items, Item{
			ExternalID:  externalID,
			Title:       fmt.Sprintf("%s (@%s)", user.Name, user.UserName),
			ContentText: user.Description,
			URL:         url,
			Author:      author,
			PublishedAt: publishedAt,
			Engagement: models.Engagement{
				Likes:  user.FavouritesCount,
				Shares: user.StatusesCount,
				Views:  user.Followers,
			},
			MediaURLs: mediaURLs,
			Hashtags:  []string{},
		})
	}

	return items, nil
}

// runActor starts an actor run, waits for it to finish, and returns its
// default dataset ID.
func (s *TwitterScraper) runActor(ctx context.Context, actorID string, input map[string]interface{}) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal actor input: %w", err)
	}

	startURL := fmt.Sprintf("%s/acts/%s/runs?token=%s", apifyBaseURL, actorID, s.config.ApifyToken)
	req, err := http.NewRequestWithContext(ctx, "POST", startURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to start actor run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("apify returned status %d", resp.StatusCode)
	}

	var run apifyRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return "", fmt.Errorf("failed to decode run response: %w", err)
	}

	runID := run.Data.ID
	datasetID := run.Data.DefaultDatasetID
	status := run.Data.Status

	statusURL := fmt.Sprintf("%s/acts/%s/runs/%s?token=%s", apifyBaseURL, actorID, runID, s.config.ApifyToken)
	for attempts := 0; status == "RUNNING" || status == "READY"; attempts++ {
		if attempts >= apifyMaxPolls {
			return "", fmt.Errorf("actor run %s did not finish in time", runID)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(apifyPollInterval):
		}

		var poll apifyRunResponse
		if err := s.getJSON(ctx, statusURL, &poll); err != nil {
			return "", fmt.Errorf("failed to poll actor run: %w", err)
		}
		status = poll.Data.Status
	}

	if status != "SUCCEEDED" {
		return "", fmt.Errorf("actor run failed with status %s", status)
	}

	return datasetID, nil
}

func (s *TwitterScraper) getJSON(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}

// extractHandle pulls the account handle from a profile URL or a name like
// "@creator".
func extractHandle(url, fallbackName string) string {
	for _, prefix := range []string{"https://twitter.com/", "https://x.com/", "https://www.twitter.com/", "https://www.x.com/"} {
		if strings.HasPrefix(url, prefix) {
			handle := strings.TrimPrefix(url, prefix)
			if i := strings.IndexAny(handle, "/?"); i >= 0 {
				handle = handle[:i]
			}
			return strings.TrimPrefix(handle, "@")
		}
	}

	if strings.HasPrefix(fallbackName, "@") {
		return strings.TrimPrefix(fallbackName, "@")
	}
	if url != "" && !strings.Contains(url, "/") {
		return strings.TrimPrefix(url, "@")
	}

	return ""
}
