package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/creatorpulse/server/internal/models"
)

// ActivityStore appends to and reads from the append-only activity feed.
// Rows are never updated or deleted.
type ActivityStore struct {
	db *DB
}

func NewActivityStore(db *DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Append writes a single activity event
func (s *ActivityStore) Append(ctx context.Context, event models.ActivityEvent) error {
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}

	query := `
		INSERT INTO activity_feed (user_id, activity_type, title, description, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query,
		event.UserID, event.Type, event.Title, nullString(event.Description), data,
	); err != nil {
		return fmt.Errorf("append activity event: %w", err)
	}
	return nil
}

// List returns a user's recent activity, newest first
func (s *ActivityStore) List(ctx context.Context, userID string, limit int) ([]models.ActivityEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, activity_type, title, COALESCE(description, ''), metadata, created_at
		FROM activity_feed
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity feed: %w", err)
	}
	defer rows.Close()

	events := make([]models.ActivityEvent, 0)
	for rows.Next() {
		var event models.ActivityEvent
		var metadataJSON []byte

		if err := rows.Scan(
			&event.ID, &event.UserID, &event.Type, &event.Title,
			&event.Description, &metadataJSON, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode activity metadata: %w", err)
			}
		}

		events = append(events, event)
	}
	return events, rows.Err()
}
