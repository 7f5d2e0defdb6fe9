package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/creatorpulse/server/internal/models"
)

// SourceStore handles content source database operations
type SourceStore struct {
	db *DB
}

// NewSourceStore creates a new source store
func NewSourceStore(db *DB) *SourceStore {
	return &SourceStore{db: db}
}

const sourceColumns = `id, user_id, name, type, url, config, status, last_scrape_status, last_scrape_at, items_last_run, total_items_scraped, error_message, created_at, updated_at`

// Create creates a new source for a user. The (user_id, url, type) triple is
// unique.
func (s *SourceStore) Create(ctx context.Context, userID string, params models.CreateSourceParams) (*models.Source, error) {
	config, err := json.Marshal(params.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal source config: %w", err)
	}

	query := `
		INSERT INTO sources (user_id, name, type, url, config)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + sourceColumns

	source, err := s.scanSource(s.db.QueryRowContext(ctx, query,
		userID, params.Name, params.Type, params.URL, config,
	))
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, fmt.Errorf("source %s (%s) already exists", params.URL, params.Type)
		}
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	return source, nil
}

// Get retrieves a source by ID, scoped to its owner
func (s *SourceStore) Get(ctx context.Context, id, userID string) (*models.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1 AND user_id = $2`

	source, err := s.scanSource(s.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return source, err
}

// List returns all sources for a user
func (s *SourceStore) List(ctx context.Context, userID string) ([]models.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE user_id = $1 ORDER BY created_at`
	return s.querySources(ctx, query, userID)
}

// ListActive returns a user's active sources, for scrape runs
func (s *SourceStore) ListActive(ctx context.Context, userID string) ([]models.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE user_id = $1 AND status = $2 ORDER BY created_at`
	return s.querySources(ctx, query, userID, models.SourceStatusActive)
}

// ListAllActive returns every active source across users, for the batch
// scrape job.
func (s *SourceStore) ListAllActive(ctx context.Context) ([]models.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE status = $1 ORDER BY user_id, created_at`
	return s.querySources(ctx, query, models.SourceStatusActive)
}

// Update applies partial updates to a source
func (s *SourceStore) Update(ctx context.Context, id, userID string, params models.UpdateSourceParams) (*models.Source, error) {
	var sets []string
	var args []interface{}
	argIdx := 1

	if params.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *params.Name)
		argIdx++
	}
	if params.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Config != nil {
		config, err := json.Marshal(*params.Config)
		if err != nil {
			return nil, fmt.Errorf("marshal source config: %w", err)
		}
		sets = append(sets, fmt.Sprintf("config = $%d", argIdx))
		args = append(args, config)
		argIdx++
	}

	if len(sets) == 0 {
		return s.Get(ctx, id, userID)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, userID)

	query := fmt.Sprintf(`
		UPDATE sources SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING `+sourceColumns, strings.Join(sets, ", "), argIdx, argIdx+1)

	source, err := s.scanSource(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return source, err
}

// MarkRunning flags a source as being scraped right now
func (s *SourceStore) MarkRunning(ctx context.Context, id string) error {
	query := `UPDATE sources SET last_scrape_status = $1, updated_at = NOW() WHERE id = $2`
	_, err := s.db.ExecContext(ctx, query, models.ScrapeStatusRunning, id)
	return err
}

// RecordRun stores the outcome of a scrape attempt on the source row
func (s *SourceStore) RecordRun(ctx context.Context, id string, result models.ScrapeRunResult) error {
	query := `
		UPDATE sources SET
			last_scrape_status = $1,
			last_scrape_at = NOW(),
			items_last_run = $2,
			total_items_scraped = total_items_scraped + $2,
			error_message = $3,
			updated_at = NOW()
		WHERE id = $4
	`
	_, err := s.db.ExecContext(ctx, query, result.Status, result.ItemsAdded, nullString(result.ErrorMessage), id)
	if err != nil {
		return fmt.Errorf("record scrape run: %w", err)
	}
	return nil
}

// Delete removes a source and, via cascade, its content items
func (s *SourceStore) Delete(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("source not found")
	}
	return nil
}

func (s *SourceStore) querySources(ctx context.Context, query string, args ...interface{}) ([]models.Source, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	sources := make([]models.Source, 0)
	for rows.Next() {
		source, err := s.scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *source)
	}
	return sources, rows.Err()
}

func (s *SourceStore) scanSource(row rowScanner) (*models.Source, error) {
	source := &models.Source{}
	var configJSON []byte
	var lastScrapeAt sql.NullTime
	var errorMessage sql.NullString

	err := row.Scan(
		&source.ID, &source.UserID, &source.Name, &source.Type, &source.URL,
		&configJSON, &source.Status, &source.LastScrapeStatus, &lastScrapeAt,
		&source.ItemsLastRun, &source.TotalItemsScraped, &errorMessage,
		&source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan source: %w", err)
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &source.Config); err != nil {
			return nil, fmt.Errorf("decode source config: %w", err)
		}
	}
	if lastScrapeAt.Valid {
		source.LastScrapeAt = &lastScrapeAt.Time
	}
	if errorMessage.Valid {
		source.ErrorMessage = errorMessage.String
	}

	return source, nil
}
