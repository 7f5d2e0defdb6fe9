package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/creatorpulse/server/internal/auth"
	"github.com/creatorpulse/server/internal/cache"
	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
)

// SourceAPI handles content source endpoints and the interactive scrape
type SourceAPI struct {
	sources        SourceStore
	ingestSvc      IngestService
	cache          cache.Cache
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewSourceAPI creates a new source API handler
func NewSourceAPI(sources SourceStore, ingestSvc IngestService, c cache.Cache, authMiddleware *auth.Middleware, logger *logging.Logger) *SourceAPI {
	return &SourceAPI{
		sources:        sources,
		ingestSvc:      ingestSvc,
		cache:          c,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// invalidateStats drops the cached dashboard stats after a mutation
func (api *SourceAPI) invalidateStats(userID string) {
	if api.cache != nil {
		api.cache.Delete(dashboardCacheKey(userID))
	}
}

// RegisterRoutes registers source routes on the given mux
func (api *SourceAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/sources", corsMiddleware(api.authMiddleware.RequireAuth(api.handleSources)))
	mux.HandleFunc("/api/sources/", corsMiddleware(api.authMiddleware.RequireAuth(api.handleSourceByID)))
	mux.HandleFunc("/api/scrape", corsMiddleware(api.authMiddleware.RequireAuth(api.handleScrape)))
}

func (api *SourceAPI) handleSources(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	switch r.Method {
	case http.MethodGet:
		sources, err := api.sources.List(r.Context(), userID)
		if err != nil {
			api.logger.Error("Failed to list sources", logging.WithField("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to list sources")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})

	case http.MethodPost:
		var params models.CreateSourceParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}

		params.Name = strings.TrimSpace(params.Name)
		params.URL = strings.TrimSpace(params.URL)
		if params.Name == "" || params.URL == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "name and url are required")
			return
		}
		if !models.IsValidSourceKind(params.Type) {
			writeError(w, http.StatusBadRequest, "invalid_request", "unsupported source type")
			return
		}

		source, err := api.sources.Create(r.Context(), userID, params)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				writeError(w, http.StatusConflict, "source_exists", err.Error())
				return
			}
			api.logger.Error("Failed to create source", logging.WithField("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to create source")
			return
		}

		api.invalidateStats(userID)
		writeJSON(w, http.StatusCreated, source)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *SourceAPI) handleSourceByID(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	id := strings.TrimPrefix(r.URL.Path, "/api/sources/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", "source not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		source, err := api.sources.Get(r.Context(), id, userID)
		if err != nil {
			api.logger.Error("Failed to get source", logging.WithField("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to get source")
			return
		}
		if source == nil {
			writeError(w, http.StatusNotFound, "not_found", "source not found")
			return
		}
		writeJSON(w, http.StatusOK, source)

	case http.MethodPatch:
		var params models.UpdateSourceParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}

		if params.Status != nil && *params.Status != models.SourceStatusActive && *params.Status != models.SourceStatusPaused {
			writeError(w, http.StatusBadRequest, "invalid_request", "status must be active or paused")
			return
		}

		source, err := api.sources.Update(r.Context(), id, userID, params)
		if err != nil {
			api.logger.Error("Failed to update source", logging.WithField("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to update source")
			return
		}
		if source == nil {
			writeError(w, http.StatusNotFound, "not_found", "source not found")
			return
		}
		api.invalidateStats(userID)
		writeJSON(w, http.StatusOK, source)

	case http.MethodDelete:
		if err := api.sources.Delete(r.Context(), id, userID); err != nil {
			if strings.Contains(err.Error(), "not found") {
				writeError(w, http.StatusNotFound, "not_found", "source not found")
				return
			}
			api.logger.Error("Failed to delete source", logging.WithField("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete source")
			return
		}
		api.invalidateStats(userID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleScrape runs an on-demand scrape of the caller's active sources.
// Per-source failures come back in the results, not as an HTTP error.
func (api *SourceAPI) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())

	results, err := api.ingestSvc.RunForUser(r.Context(), userID)
	if err != nil {
		api.logger.Error("Interactive scrape failed", logging.WithFields(map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		}))
		writeError(w, http.StatusInternalServerError, "internal_error", "scrape failed")
		return
	}

	itemsAdded := 0
	for _, res := range results {
		itemsAdded += res.ItemsAdded
	}

	if itemsAdded > 0 {
		api.invalidateStats(userID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":    results,
		"itemsAdded": itemsAdded,
	})
}
