package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/creatorpulse/server/internal/models"
)

// ContentStore persists scraped content items in Postgres.
type ContentStore struct {
	db *DB
}

func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

// InsertItems inserts new content items, skipping rows whose
// (source_id, external_id) pair already exists. The unique index makes the
// dedup safe under concurrent scrapes of the same source; there is no
// check-then-insert window. Returns the number of rows actually inserted.
func (s *ContentStore) InsertItems(ctx context.Context, items []models.ContentItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO content_items (
			user_id, source_id, external_id,
			title, content_text, url, author, published_at,
			engagement_likes, engagement_shares, engagement_comments, engagement_views,
			engagement_score, media_urls, hashtags, source_type
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16
		)
		ON CONFLICT (source_id, external_id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		mediaURLs := item.MediaURLs
		if mediaURLs == nil {
			mediaURLs = []string{}
		}
		hashtags := item.Hashtags
		if hashtags == nil {
			hashtags = []string{}
		}

		res, err := stmt.ExecContext(ctx,
			item.UserID,
			item.SourceID,
			item.ExternalID,
			item.Title,
			nullString(item.ContentText),
			item.URL,
			nullString(item.Author),
			item.PublishedAt,
			item.Engagement.Likes,
			item.Engagement.Shares,
			item.Engagement.Comments,
			item.Engagement.Views,
			item.EngagementScore,
			pq.Array(mediaURLs),
			pq.Array(hashtags),
			item.SourceType,
		)
		if err != nil {
			return 0, fmt.Errorf("insert content item %s: %w", item.ExternalID, err)
		}
		if rows, _ := res.RowsAffected(); rows > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return inserted, nil
}

// ListSince returns a user's content pool published at or after the cutoff,
// newest first.
func (s *ContentStore) ListSince(ctx context.Context, userID string, cutoff time.Time) ([]models.ContentItem, error) {
	query := `
		SELECT
			id, user_id, source_id, external_id,
			title, content_text, url, author, published_at,
			engagement_likes, engagement_shares, engagement_comments, engagement_views,
			engagement_score, media_urls, hashtags, source_type, created_at
		FROM content_items
		WHERE user_id = $1 AND published_at >= $2
		ORDER BY published_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query content items: %w", err)
	}
	defer rows.Close()

	items := make([]models.ContentItem, 0)
	for rows.Next() {
		var item models.ContentItem
		var contentText, author sql.NullString
		var mediaURLs, hashtags pq.StringArray

		if err := rows.Scan(
			&item.ID, &item.UserID, &item.SourceID, &item.ExternalID,
			&item.Title, &contentText, &item.URL, &author, &item.PublishedAt,
			&item.Engagement.Likes, &item.Engagement.Shares, &item.Engagement.Comments, &item.Engagement.Views,
			&item.EngagementScore, &mediaURLs, &hashtags, &item.SourceType, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}

		if contentText.Valid {
			item.ContentText = contentText.String
		}
		if author.Valid {
			item.Author = author.String
		}
		item.MediaURLs = []string(mediaURLs)
		item.Hashtags = []string(hashtags)

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content items: %w", err)
	}

	return items, nil
}

// CountForUser returns the total number of content items a user has
func (s *ContentStore) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_items WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count content items: %w", err)
	}
	return count, nil
}

// DeleteOlderThan prunes items published before the cutoff
func (s *ContentStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content_items WHERE published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old content items: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
