package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/creatorpulse/server/internal/config"
	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/testutil"
)

type mockUserStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	nextID  int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (m *mockUserStore) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	if _, exists := m.byEmail[params.Email]; exists {
		return nil, errors.New("duplicate key")
	}
	m.nextID++
	user := &models.User{
		ID:           fmt.Sprintf("user-%d", m.nextID),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		DisplayName:  params.DisplayName,
		Status:       params.Status,
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    time.Now(),
	}
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return user, nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.byID[id], nil
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.byEmail[strings.ToLower(email)], nil
}

func (m *mockUserStore) UpdateLastLogin(ctx context.Context, id string) error {
	return nil
}

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:      "test-secret-key-minimum-32-chars-long",
		JWTIssuer:      "creatorpulse-test",
		JWTAudience:    "creatorpulse-users",
		AccessTokenTTL: 15 * time.Minute,
	}
}

func newTestService() (*Service, *mockUserStore) {
	store := newMockUserStore()
	return NewService(store, testConfig(), testutil.NullLogger()), store
}

func TestSignup(t *testing.T) {
	svc, store := newTestService()

	resp, err := svc.Signup(context.Background(), models.SignupParams{
		Email:       "Creator@Example.com",
		Password:    "s3cret-password",
		DisplayName: "Creator",
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if !resp.IsNewUser {
		t.Error("IsNewUser should be true")
	}
	if resp.User.Email != "creator@example.com" {
		t.Errorf("email = %q, want lowercased", resp.User.Email)
	}
	if resp.Tokens == nil || resp.Tokens.AccessToken == "" {
		t.Fatal("signup should issue an access token")
	}

	// Stored hash must verify against the original password.
	stored := store.byEmail["creator@example.com"]
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-password")); err != nil {
		t.Error("stored password hash does not match the password")
	}

	// Issued token must validate back to the user.
	userID, err := svc.ValidateAccessToken(resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if userID != resp.User.ID {
		t.Errorf("token subject = %q, want %q", userID, resp.User.ID)
	}
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name   string
		params models.SignupParams
	}{
		{"empty email", models.SignupParams{Password: "longenough"}},
		{"bad email", models.SignupParams{Email: "not-an-email", Password: "longenough"}},
		{"short password", models.SignupParams{Email: "a@b.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.params)
			var authErr *AuthError
			if !errors.As(err, &authErr) || authErr.Code != "invalid_input" {
				t.Errorf("Signup() err = %v, want invalid_input", err)
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	params := models.SignupParams{Email: "a@b.com", Password: "longenough"}
	if _, err := svc.Signup(context.Background(), params); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}

	_, err := svc.Signup(context.Background(), params)
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != "user_exists" {
		t.Errorf("duplicate Signup() err = %v, want user_exists", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Signup(context.Background(), models.SignupParams{Email: "a@b.com", Password: "longenough"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	resp, err := svc.Login(context.Background(), models.LoginParams{Email: "A@B.com", Password: "longenough"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Tokens == nil || resp.Tokens.AccessToken == "" {
		t.Error("login should issue an access token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Signup(context.Background(), models.SignupParams{Email: "a@b.com", Password: "longenough"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	_, err := svc.Login(context.Background(), models.LoginParams{Email: "a@b.com", Password: "wrong-password"})
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != "invalid_credentials" {
		t.Errorf("Login() err = %v, want invalid_credentials", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Login(context.Background(), models.LoginParams{Email: "ghost@b.com", Password: "whatever"})
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != "invalid_credentials" {
		t.Errorf("Login() err = %v, want invalid_credentials", err)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, store := newTestService()

	if _, err := svc.Signup(context.Background(), models.SignupParams{Email: "a@b.com", Password: "longenough"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	store.byEmail["a@b.com"].Status = models.UserStatusDisabled

	_, err := svc.Login(context.Background(), models.LoginParams{Email: "a@b.com", Password: "longenough"})
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != "account_disabled" {
		t.Errorf("Login() err = %v, want account_disabled", err)
	}
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc, _ := newTestService()

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		if _, err := svc.ValidateAccessToken(token); err == nil {
			t.Errorf("ValidateAccessToken(%q) should fail", token)
		}
	}
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.Signup(context.Background(), models.SignupParams{Email: "a@b.com", Password: "longenough"})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	other := testConfig()
	other.JWTIssuer = "someone-else"
	otherSvc := NewService(newMockUserStore(), other, testutil.NullLogger())

	if _, err := otherSvc.ValidateAccessToken(resp.Tokens.AccessToken); err == nil {
		t.Error("token with a different issuer must not validate")
	}
}

type stubValidator struct {
	userID string
	err    error
}

func (v stubValidator) ValidateAccessToken(token string) (string, error) {
	return v.userID, v.err
}

func TestRequireAuth(t *testing.T) {
	mw := NewMiddleware(stubValidator{userID: "u1"})

	var gotUserID string
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "u1" {
		t.Errorf("user ID in context = %q, want u1", gotUserID)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	mw := NewMiddleware(stubValidator{userID: "u1"})
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a token")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	mw := NewMiddleware(stubValidator{err: errors.New("expired")})
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with an invalid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
