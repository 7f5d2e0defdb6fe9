package httpapi

import (
	"net/http"
	"strconv"

	"github.com/creatorpulse/server/internal/auth"
	"github.com/creatorpulse/server/internal/cache"
	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
)

// dashboardCacheKey is the cache key for a user's dashboard stats. Handlers
// that mutate sources, content, or drafts delete it so the next stats read
// recomputes.
func dashboardCacheKey(userID string) string {
	return "dashboard:" + userID
}

// DashboardStats is the aggregate view shown on the dashboard
type DashboardStats struct {
	TotalSources    int `json:"totalSources"`
	ActiveSources   int `json:"activeSources"`
	ContentItems    int `json:"contentItems"`
	DraftsGenerated int `json:"draftsGenerated"`
	NewslettersSent int `json:"newslettersSent"`
}

// DashboardAPI serves aggregate stats and the activity feed
type DashboardAPI struct {
	sources        SourceStore
	drafts         DraftStore
	activity       ActivityStore
	content        ContentStore
	cache          cache.Cache
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewDashboardAPI creates a new dashboard API handler
func NewDashboardAPI(sources SourceStore, drafts DraftStore, activity ActivityStore, content ContentStore, c cache.Cache, authMiddleware *auth.Middleware, logger *logging.Logger) *DashboardAPI {
	return &DashboardAPI{
		sources:        sources,
		drafts:         drafts,
		activity:       activity,
		content:        content,
		cache:          c,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers dashboard routes on the given mux
func (api *DashboardAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/dashboard/stats", corsMiddleware(api.authMiddleware.RequireAuth(api.handleStats)))
	mux.HandleFunc("/api/activity", corsMiddleware(api.authMiddleware.RequireAuth(api.handleActivity)))
}

func (api *DashboardAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())
	cacheKey := dashboardCacheKey(userID)

	if api.cache != nil {
		if cached, ok := api.cache.Get(cacheKey); ok {
			if stats, ok := cached.(DashboardStats); ok {
				writeJSON(w, http.StatusOK, stats)
				return
			}
		}
	}

	sources, err := api.sources.List(r.Context(), userID)
	if err != nil {
		api.logger.Error("Failed to load sources for stats", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load stats")
		return
	}

	contentCount, err := api.content.CountForUser(r.Context(), userID)
	if err != nil {
		api.logger.Error("Failed to count content for stats", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load stats")
		return
	}

	drafts, err := api.drafts.List(r.Context(), userID, 100)
	if err != nil {
		api.logger.Error("Failed to load drafts for stats", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load stats")
		return
	}

	stats := DashboardStats{
		TotalSources: len(sources),
		ContentItems: contentCount,
	}
	for _, src := range sources {
		if src.Status == models.SourceStatusActive {
			stats.ActiveSources++
		}
	}
	for _, draft := range drafts {
		stats.DraftsGenerated++
		if draft.Status == models.DraftStatusSent {
			stats.NewslettersSent++
		}
	}

	if api.cache != nil {
		api.cache.Set(cacheKey, stats)
	}

	writeJSON(w, http.StatusOK, stats)
}

func (api *DashboardAPI) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	events, err := api.activity.List(r.Context(), userID, limit)
	if err != nil {
		api.logger.Error("Failed to list activity", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list activity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": events})
}
