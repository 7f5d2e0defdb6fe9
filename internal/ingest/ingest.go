// Package ingest orchestrates scrape runs: it drives the per-type scrapers,
// scores items, and persists them with dedup.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/scrape"
)

// defaultWorkers bounds the batch scrape fan-out
const defaultWorkers = 4

// SourceStore is the subset of source persistence ingest needs
type SourceStore interface {
	Get(ctx context.Context, id, userID string) (*models.Source, error)
	ListActive(ctx context.Context, userID string) ([]models.Source, error)
	ListAllActive(ctx context.Context) ([]models.Source, error)
	MarkRunning(ctx context.Context, id string) error
	RecordRun(ctx context.Context, id string, result models.ScrapeRunResult) error
}

// ContentStore persists scraped items
type ContentStore interface {
	InsertItems(ctx context.Context, items []models.ContentItem) (int, error)
}

// ActivityStore records ingest side effects
type ActivityStore interface {
	Append(ctx context.Context, event models.ActivityEvent) error
}

// Scrapers resolves a source to the scraper for its type
type Scrapers interface {
	For(src models.Source) (scrape.Scraper, error)
}

// Service runs scrapes against configured sources
type Service struct {
	sources    SourceStore
	content    ContentStore
	activity   ActivityStore
	scrapers   Scrapers
	logger     *logging.Logger
	numWorkers int
}

// New creates an ingest service
func New(sources SourceStore, content ContentStore, activity ActivityStore, scrapers Scrapers, logger *logging.Logger) *Service {
	return &Service{
		sources:    sources,
		content:    content,
		activity:   activity,
		scrapers:   scrapers,
		logger:     logger,
		numWorkers: defaultWorkers,
	}
}

// SourceResult is the outcome of one source's scrape run
type SourceResult struct {
	SourceID   string `json:"sourceId"`
	SourceName string `json:"sourceName"`
	Status     string `json:"status"`
	ItemsAdded int    `json:"itemsAdded"`
	Error      string `json:"error,omitempty"`
}

// RunSource scrapes a single source, scores and stores its items, and records
// the run outcome on the source row. A scrape failure is recorded, not
// returned as a service failure; the returned result carries it.
func (s *Service) RunSource(ctx context.Context, src models.Source) SourceResult {
	result := SourceResult{SourceID: src.ID, SourceName: src.Name}

	if err := s.sources.MarkRunning(ctx, src.ID); err != nil {
		s.logger.Warn("Failed to mark source running", logging.WithFields(map[string]interface{}{
			"source_id": src.ID,
			"error":     err.Error(),
		}))
	}

	inserted, err := s.scrapeAndStore(ctx, src)
	if err != nil {
		result.Status = models.ScrapeStatusFailed
		result.Error = err.Error()

		s.logger.Warn("Scrape failed", logging.WithFields(map[string]interface{}{
			"source_id": src.ID,
			"source":    src.Name,
			"error":     err.Error(),
		}))

		if recErr := s.sources.RecordRun(ctx, src.ID, models.ScrapeRunResult{
			Status:       models.ScrapeStatusFailed,
			ErrorMessage: err.Error(),
		}); recErr != nil {
			s.logger.Error("Failed to record scrape failure", logging.WithField("error", recErr.Error()))
		}
		return result
	}

	result.Status = models.ScrapeStatusSuccess
	result.ItemsAdded = inserted

	if err := s.sources.RecordRun(ctx, src.ID, models.ScrapeRunResult{
		Status:     models.ScrapeStatusSuccess,
		ItemsAdded: inserted,
	}); err != nil {
		s.logger.Error("Failed to record scrape run", logging.WithField("error", err.Error()))
	}

	s.logger.Info("Scrape complete", logging.WithFields(map[string]interface{}{
		"source_id": src.ID,
		"source":    src.Name,
		"added":     inserted,
	}))

	if err := s.activity.Append(ctx, models.ActivityEvent{
		UserID: src.UserID,
		Type:   models.ActivitySourceScraped,
		Title:  fmt.Sprintf("Scraped %s", src.Name),
		Metadata: map[string]interface{}{
			"sourceId":   src.ID,
			"itemsAdded": inserted,
		},
	}); err != nil {
		s.logger.Warn("Failed to append activity event", logging.WithField("error", err.Error()))
	}

	return result
}

func (s *Service) scrapeAndStore(ctx context.Context, src models.Source) (int, error) {
	scraper, err := s.scrapers.For(src)
	if err != nil {
		return 0, err
	}

	raw, err := scraper.Scrape(ctx, src)
	if err != nil {
		return 0, err
	}

	items := make([]models.ContentItem, 0, len(raw))
	for _, r := range raw {
		if r.ExternalID == "" || r.Title == "" {
			continue
		}

		publishedAt := r.PublishedAt
		if publishedAt.IsZero() {
			publishedAt = time.Now()
		}

		items = append(items, models.ContentItem{
			UserID:          src.UserID,
			SourceID:        src.ID,
			ExternalID:      r.ExternalID,
			Title:           models.NormalizeTitle(r.Title),
			ContentText:     r.ContentText,
			URL:             r.URL,
			Author:          r.Author,
			PublishedAt:     publishedAt,
			Engagement:      r.Engagement,
			EngagementScore: r.Engagement.Score(),
			MediaURLs:       r.MediaURLs,
			Hashtags:        r.Hashtags,
			SourceType:      models.ContentTypeFor(src.Type),
		})
	}

	return s.content.InsertItems(ctx, items)
}

// RunForUser scrapes all of a user's active sources. Used by the interactive
// scrape endpoint; per-source failures are reported in the results, not
// returned as an error.
func (s *Service) RunForUser(ctx context.Context, userID string) ([]SourceResult, error) {
	srcs, err := s.sources.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}
	return s.runAll(ctx, srcs), nil
}

// RunBatch scrapes every active source across all users. One source's failure
// never aborts the rest.
func (s *Service) RunBatch(ctx context.Context) ([]SourceResult, error) {
	srcs, err := s.sources.ListAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all active sources: %w", err)
	}

	s.logger.Info("Starting batch scrape", logging.WithField("sources", len(srcs)))
	return s.runAll(ctx, srcs), nil
}

func (s *Service) runAll(ctx context.Context, srcs []models.Source) []SourceResult {
	if len(srcs) == 0 {
		return []SourceResult{}
	}

	jobs := make(chan models.Source)
	resultsCh := make(chan SourceResult, len(srcs))

	var wg sync.WaitGroup
	workers := s.numWorkers
	if workers > len(srcs) {
		workers = len(srcs)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				resultsCh <- s.RunSource(ctx, src)
			}
		}()
	}

	go func() {
		for _, src := range srcs {
			jobs <- src
		}
		close(jobs)
		wg.Wait()
		close(resultsCh)
	}()

	results := make([]SourceResult, 0, len(srcs))
	for r := range resultsCh {
		results = append(results, r)
	}
	return results
}
