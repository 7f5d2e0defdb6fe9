package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/creatorpulse/server/internal/auth"
	"github.com/creatorpulse/server/internal/cache"
	"github.com/creatorpulse/server/internal/digest"
	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/newsletter"
)

// DraftAPI handles newsletter draft endpoints
type DraftAPI struct {
	drafts         DraftStore
	newsletterSvc  NewsletterService
	cache          cache.Cache
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewDraftAPI creates a new draft API handler
func NewDraftAPI(drafts DraftStore, newsletterSvc NewsletterService, c cache.Cache, authMiddleware *auth.Middleware, logger *logging.Logger) *DraftAPI {
	return &DraftAPI{
		drafts:         drafts,
		newsletterSvc:  newsletterSvc,
		cache:          c,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// invalidateStats drops the cached dashboard stats after a mutation
func (api *DraftAPI) invalidateStats(userID string) {
	if api.cache != nil {
		api.cache.Delete(dashboardCacheKey(userID))
	}
}

// RegisterRoutes registers draft routes on the given mux
func (api *DraftAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/drafts", corsMiddleware(api.authMiddleware.RequireAuth(api.handleDrafts)))
	mux.HandleFunc("/api/drafts/", corsMiddleware(api.authMiddleware.RequireAuth(api.handleDraftByID)))
	mux.HandleFunc("/api/send-newsletter", corsMiddleware(api.authMiddleware.RequireAuth(api.handleSend)))
}

func (api *DraftAPI) handleDrafts(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	switch r.Method {
	case http.MethodGet:
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		drafts, err := api.drafts.List(r.Context(), userID, limit)
		if err != nil {
			api.logger.Error("Failed to list drafts", logging.WithField("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to list drafts")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"drafts": drafts})

	case http.MethodPost:
		// Generate a fresh draft from the current content pool.
		draft, err := api.newsletterSvc.GenerateForUser(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, digest.ErrInsufficientContent):
				writeError(w, http.StatusUnprocessableEntity, "insufficient_content", "not enough recent content to generate a newsletter; scrape your sources first")
			case errors.Is(err, digest.ErrGenerationFailed):
				writeError(w, http.StatusBadGateway, "generation_failed", "newsletter generation failed; try again")
			default:
				api.logger.Error("Draft generation failed", logging.WithField("error", err.Error()))
				writeError(w, http.StatusInternalServerError, "internal_error", "draft generation failed")
			}
			return
		}
		api.invalidateStats(userID)
		writeJSON(w, http.StatusCreated, draft)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *DraftAPI) handleDraftByID(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	id := strings.TrimPrefix(r.URL.Path, "/api/drafts/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", "draft not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		draft, err := api.drafts.Get(r.Context(), id, userID)
		if err != nil {
			api.logger.Error("Failed to get draft", logging.WithField("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to get draft")
			return
		}
		if draft == nil {
			writeError(w, http.StatusNotFound, "not_found", "draft not found")
			return
		}
		writeJSON(w, http.StatusOK, draft)

	case http.MethodPatch:
		var params models.UpdateDraftParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}

		if params.Status != nil {
			switch *params.Status {
			case models.DraftStatusDraft, models.DraftStatusScheduled, models.DraftStatusArchived:
			default:
				writeError(w, http.StatusBadRequest, "invalid_request", "status can only be set to draft, scheduled, or archived")
				return
			}
		}

		draft, err := api.drafts.Update(r.Context(), id, userID, params)
		if err != nil {
			api.logger.Error("Failed to update draft", logging.WithField("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to update draft")
			return
		}
		if draft == nil {
			writeError(w, http.StatusNotFound, "not_found", "draft not found or already sent")
			return
		}
		writeJSON(w, http.StatusOK, draft)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *DraftAPI) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())

	draft, err := api.newsletterSvc.SendForUser(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, newsletter.ErrNoDraft):
			writeError(w, http.StatusNotFound, "no_draft", "no unsent draft to deliver")
		case errors.Is(err, newsletter.ErrNotificationsDisabled):
			writeError(w, http.StatusConflict, "notifications_disabled", "email notifications are disabled for this account")
		case errors.Is(err, newsletter.ErrPartialFailure):
			writeError(w, http.StatusBadGateway, "partial_failure", "some recipients did not receive the newsletter; the draft was kept for retry")
		default:
			api.logger.Error("Newsletter send failed", logging.WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			}))
			writeError(w, http.StatusBadGateway, "delivery_failed", "newsletter delivery failed; the draft was kept for retry")
		}
		return
	}

	api.invalidateStats(userID)
	writeJSON(w, http.StatusOK, draft)
}
