// Package auth handles account signup, login, and JWT access tokens.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/creatorpulse/server/internal/config"
	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
)

// UserStore is the subset of user persistence auth needs
type UserStore interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// Service handles authentication operations
type Service struct {
	config    config.AuthConfig
	userStore UserStore
	logger    *logging.Logger
}

// NewService creates a new auth service
func NewService(userStore UserStore, cfg config.AuthConfig, logger *logging.Logger) *Service {
	return &Service{
		config:    cfg,
		userStore: userStore,
		logger:    logger,
	}
}

// Signup creates a new user with email/password
func (s *Service) Signup(ctx context.Context, params models.SignupParams) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if email == "" {
		return nil, &AuthError{Code: "invalid_input", Message: "email is required"}
	}
	if !strings.Contains(email, "@") {
		return nil, &AuthError{Code: "invalid_input", Message: "email is not valid"}
	}
	if len(params.Password) < 8 {
		return nil, &AuthError{Code: "invalid_input", Message: "password must be at least 8 characters"}
	}

	existing, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, &AuthError{Code: "user_exists", Message: "a user with this email already exists"}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userStore.Create(ctx, models.CreateUserParams{
		Email:        email,
		PasswordHash: string(passwordHash),
		DisplayName:  strings.TrimSpace(params.DisplayName),
		Status:       models.UserStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.logger.Info("User signed up", logging.WithFields(map[string]interface{}{
		"userId": user.ID,
		"email":  user.Email,
	}))

	return &models.AuthResponse{
		User:      user,
		Tokens:    tokens,
		IsNewUser: true,
	}, nil
}

// Login authenticates a user with email/password
func (s *Service) Login(ctx context.Context, params models.LoginParams) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if email == "" || params.Password == "" {
		return nil, &AuthError{Code: "invalid_input", Message: "email and password are required"}
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &AuthError{Code: "invalid_credentials", Message: "invalid email or password"}
	}

	if user.Status != models.UserStatusActive {
		return nil, &AuthError{Code: "account_disabled", Message: "account is disabled"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)); err != nil {
		return nil, &AuthError{Code: "invalid_credentials", Message: "invalid email or password"}
	}

	if err := s.userStore.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("Failed to update last login", logging.WithField("error", err.Error()))
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.logger.Info("User logged in", logging.WithFields(map[string]interface{}{
		"userId": user.ID,
		"email":  user.Email,
	}))

	return &models.AuthResponse{
		User:   user,
		Tokens: tokens,
	}, nil
}

// ValidateAccessToken validates a JWT access token and returns the user ID
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return "", &AuthError{Code: "invalid_token", Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", &AuthError{Code: "invalid_token", Message: "invalid token claims"}
	}

	if iss, _ := claims["iss"].(string); iss != s.config.JWTIssuer {
		return "", &AuthError{Code: "invalid_token", Message: "invalid token issuer"}
	}
	if aud, _ := claims["aud"].(string); aud != s.config.JWTAudience {
		return "", &AuthError{Code: "invalid_token", Message: "invalid token audience"}
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", &AuthError{Code: "invalid_token", Message: "invalid token subject"}
	}

	return userID, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userStore.GetByID(ctx, userID)
}

func (s *Service) issueTokens(user *models.User) (*models.AuthTokens, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.DisplayName,
		"iss":   s.config.JWTIssuer,
		"aud":   s.config.JWTAudience,
		"iat":   now.Unix(),
		"exp":   now.Add(s.config.AccessTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.config.AccessTokenTTL.Seconds()),
	}, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AuthError) Error() string {
	return e.Message
}
