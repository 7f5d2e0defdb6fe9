package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/creatorpulse/server/internal/models"
)

// UserStore handles user database operations
type UserStore struct {
	db *DB
}

// NewUserStore creates a new user store
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, email, password_hash, display_name, delivery_email, status, preferences, voice_profile, created_at, updated_at, last_login_at`

// Create creates a new user
func (s *UserStore) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	status := params.Status
	if status == "" {
		status = models.UserStatusActive
	}

	prefs, err := json.Marshal(models.DefaultPreferences())
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, display_name, status, preferences)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	user, err := s.scanUser(s.db.QueryRowContext(ctx, query,
		email, nullString(params.PasswordHash), params.DisplayName, status, prefs,
	))
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, fmt.Errorf("user with email %s already exists", email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email (case-insensitive). Returns nil when
// no user exists.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = $1`

	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// ListActive returns all active users, for batch generate/send runs
func (s *UserStore) ListActive(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE status = $1 ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, models.UserStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateLastLogin updates the last login timestamp
func (s *UserStore) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

// UpdatePreferences replaces the user's delivery preferences
func (s *UserStore) UpdatePreferences(ctx context.Context, id string, prefs models.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	query := `UPDATE users SET preferences = $1, updated_at = NOW() WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, data, id); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

// UpdateVoiceProfile replaces the user's voice profile wholesale
func (s *UserStore) UpdateVoiceProfile(ctx context.Context, id string, profile *models.VoiceProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal voice profile: %w", err)
	}

	query := `UPDATE users SET voice_profile = $1, updated_at = NOW() WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, data, id); err != nil {
		return fmt.Errorf("update voice profile: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *UserStore) scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var passwordHash, deliveryEmail sql.NullString
	var prefsJSON []byte
	var voiceJSON []byte
	var lastLoginAt sql.NullTime

	err := row.Scan(
		&user.ID, &user.Email, &passwordHash, &user.DisplayName, &deliveryEmail,
		&user.Status, &prefsJSON, &voiceJSON,
		&user.CreatedAt, &user.UpdatedAt, &lastLoginAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if passwordHash.Valid {
		user.PasswordHash = passwordHash.String
	}
	if deliveryEmail.Valid {
		user.DeliveryEmail = deliveryEmail.String
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}

	user.Preferences = models.DefaultPreferences()
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &user.Preferences); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
	}

	if len(voiceJSON) > 0 {
		var profile models.VoiceProfile
		if err := json.Unmarshal(voiceJSON, &profile); err != nil {
			return nil, fmt.Errorf("decode voice profile: %w", err)
		}
		user.VoiceProfile = &profile
	}

	return user, nil
}
