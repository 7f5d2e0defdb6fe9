package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/creatorpulse/server/internal/auth"
	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
)

// AuthAPI handles authentication HTTP endpoints
type AuthAPI struct {
	authService    AuthService
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewAuthAPI creates a new auth API handler
func NewAuthAPI(authService AuthService, authMiddleware *auth.Middleware, logger *logging.Logger) *AuthAPI {
	return &AuthAPI{
		authService:    authService,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers auth routes on the given mux
func (api *AuthAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/auth/signup", corsMiddleware(api.handleSignup))
	mux.HandleFunc("/api/auth/login", corsMiddleware(api.handleLogin))
	mux.HandleFunc("/api/auth/me", corsMiddleware(api.authMiddleware.RequireAuth(api.handleGetMe)))
}

func (api *AuthAPI) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params models.SignupParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	response, err := api.authService.Signup(r.Context(), params)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			status := http.StatusBadRequest
			if authErr.Code == "user_exists" {
				status = http.StatusConflict
			}
			writeError(w, status, authErr.Code, authErr.Message)
			return
		}
		api.logger.Error("Signup failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "signup failed")
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

func (api *AuthAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params models.LoginParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	response, err := api.authService.Login(r.Context(), params)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			status := http.StatusUnauthorized
			if authErr.Code == "account_disabled" {
				status = http.StatusForbidden
			}
			writeError(w, status, authErr.Code, authErr.Message)
			return
		}
		api.logger.Error("Login failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "login failed")
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (api *AuthAPI) handleGetMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())

	user, err := api.authService.GetUser(r.Context(), userID)
	if err != nil {
		api.logger.Error("Failed to get user", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
