package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/creatorpulse/server/internal/models"
)

// DraftStore handles newsletter draft database operations
type DraftStore struct {
	db *DB
}

func NewDraftStore(db *DB) *DraftStore {
	return &DraftStore{db: db}
}

const draftColumns = `id, user_id, status, ai_title, ai_intro, ai_body, ai_closing, curated_items, trending_items, user_edited_body, edit_time_seconds, acceptance_rate, generation_seconds, delivered, generated_at, scheduled_at, sent_at`

// Create persists a freshly composed draft with status "draft"
func (s *DraftStore) Create(ctx context.Context, draft *models.Draft) (*models.Draft, error) {
	curated, err := json.Marshal(draft.CuratedItems)
	if err != nil {
		return nil, fmt.Errorf("marshal curated items: %w", err)
	}
	trending, err := json.Marshal(draft.TrendingItems)
	if err != nil {
		return nil, fmt.Errorf("marshal trending items: %w", err)
	}

	query := `
		INSERT INTO drafts (
			user_id, status, ai_title, ai_intro, ai_body, ai_closing,
			curated_items, trending_items, generation_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + draftColumns

	return s.scanDraft(s.db.QueryRowContext(ctx, query,
		draft.UserID, models.DraftStatusDraft, draft.AITitle,
		nullString(draft.AIIntro), draft.AIBody, nullString(draft.AIClosing),
		curated, trending, draft.GenerationSeconds,
	))
}

// Get retrieves a draft by ID, scoped to its owner
func (s *DraftStore) Get(ctx context.Context, id, userID string) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1 AND user_id = $2`

	draft, err := s.scanDraft(s.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return draft, err
}

// List returns a user's drafts, newest first
func (s *DraftStore) List(ctx context.Context, userID string, limit int) ([]models.Draft, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + draftColumns + ` FROM drafts WHERE user_id = $1 ORDER BY generated_at DESC LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer rows.Close()

	drafts := make([]models.Draft, 0)
	for rows.Next() {
		draft, err := s.scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *draft)
	}
	return drafts, rows.Err()
}

// LatestUnsent returns the most recent draft still in "draft" status, or nil
func (s *DraftStore) LatestUnsent(ctx context.Context, userID string) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE user_id = $1 AND status = $2 ORDER BY generated_at DESC LIMIT 1`

	draft, err := s.scanDraft(s.db.QueryRowContext(ctx, query, userID, models.DraftStatusDraft))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return draft, err
}

// Update applies user edits to a draft. Sent drafts are not editable.
func (s *DraftStore) Update(ctx context.Context, id, userID string, params models.UpdateDraftParams) (*models.Draft, error) {
	var sets []string
	var args []interface{}
	argIdx := 1

	if params.UserEditedBody != nil {
		sets = append(sets, fmt.Sprintf("user_edited_body = $%d", argIdx))
		args = append(args, *params.UserEditedBody)
		argIdx++
	}
	if params.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.ScheduledAt != nil {
		sets = append(sets, fmt.Sprintf("scheduled_at = $%d", argIdx))
		args = append(args, *params.ScheduledAt)
		argIdx++
	}
	if params.EditTimeSeconds != nil {
		sets = append(sets, fmt.Sprintf("edit_time_seconds = edit_time_seconds + $%d", argIdx))
		args = append(args, *params.EditTimeSeconds)
		argIdx++
	}

	if len(sets) == 0 {
		return s.Get(ctx, id, userID)
	}

	args = append(args, id, userID, models.DraftStatusSent)

	query := fmt.Sprintf(`
		UPDATE drafts SET %s
		WHERE id = $%d AND user_id = $%d AND status != $%d
		RETURNING `+draftColumns, strings.Join(sets, ", "), argIdx, argIdx+1, argIdx+2)

	draft, err := s.scanDraft(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return draft, err
}

// MarkSent flips a draft to "sent" and records the delivered count. Only the
// delivery path calls this, and only when every recipient succeeded.
func (s *DraftStore) MarkSent(ctx context.Context, id, userID string, delivered int, sentAt time.Time) error {
	query := `
		UPDATE drafts SET status = $1, sent_at = $2, delivered = $3
		WHERE id = $4 AND user_id = $5 AND status != $1
	`
	res, err := s.db.ExecContext(ctx, query, models.DraftStatusSent, sentAt, delivered, id, userID)
	if err != nil {
		return fmt.Errorf("mark draft sent: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("draft not found or already sent")
	}
	return nil
}

func (s *DraftStore) scanDraft(row rowScanner) (*models.Draft, error) {
	draft := &models.Draft{}
	var intro, closing, editedBody sql.NullString
	var curatedJSON, trendingJSON []byte
	var scheduledAt, sentAt sql.NullTime

	err := row.Scan(
		&draft.ID, &draft.UserID, &draft.Status, &draft.AITitle, &intro,
		&draft.AIBody, &closing, &curatedJSON, &trendingJSON, &editedBody,
		&draft.EditTimeSeconds, &draft.AcceptanceRate, &draft.GenerationSeconds,
		&draft.Delivered, &draft.GeneratedAt, &scheduledAt, &sentAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan draft: %w", err)
	}

	if intro.Valid {
		draft.AIIntro = intro.String
	}
	if closing.Valid {
		draft.AIClosing = closing.String
	}
	if editedBody.Valid {
		draft.UserEditedBody = editedBody.String
	}
	if scheduledAt.Valid {
		draft.ScheduledAt = &scheduledAt.Time
	}
	if sentAt.Valid {
		draft.SentAt = &sentAt.Time
	}

	if err := json.Unmarshal(curatedJSON, &draft.CuratedItems); err != nil {
		return nil, fmt.Errorf("decode curated items: %w", err)
	}
	if err := json.Unmarshal(trendingJSON, &draft.TrendingItems); err != nil {
		return nil, fmt.Errorf("decode trending items: %w", err)
	}

	return draft, nil
}
