package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/creatorpulse/server/internal/logging"
)

// CronAPI exposes the batch jobs to an external scheduler. Every endpoint is
// guarded by the shared cron secret; with no secret configured the endpoints
// are disabled outright.
type CronAPI struct {
	ingestSvc     IngestService
	newsletterSvc NewsletterService
	secret        string
	logger        *logging.Logger
}

// NewCronAPI creates a new cron API handler
func NewCronAPI(ingestSvc IngestService, newsletterSvc NewsletterService, secret string, logger *logging.Logger) *CronAPI {
	return &CronAPI{
		ingestSvc:     ingestSvc,
		newsletterSvc: newsletterSvc,
		secret:        secret,
		logger:        logger,
	}
}

// RegisterRoutes registers cron routes on the given mux
func (api *CronAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/cron/scrape", corsMiddleware(api.requireSecret(api.handleScrape)))
	mux.HandleFunc("/api/cron/generate", corsMiddleware(api.requireSecret(api.handleGenerate)))
	mux.HandleFunc("/api/cron/send", corsMiddleware(api.requireSecret(api.handleSend)))
}

func (api *CronAPI) requireSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.secret == "" {
			writeError(w, http.StatusNotFound, "not_found", "cron endpoints are not configured")
			return
		}

		header := r.Header.Get("Authorization")
		token := ""
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = parts[1]
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(api.secret)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid cron secret")
			return
		}

		next(w, r)
	}
}

func (api *CronAPI) handleScrape(w http.ResponseWriter, r *http.Request) {
	results, err := api.ingestSvc.RunBatch(r.Context())
	if err != nil {
		api.logger.Error("Cron scrape failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "batch scrape failed")
		return
	}

	itemsAdded := 0
	for _, res := range results {
		itemsAdded += res.ItemsAdded
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sources":    len(results),
		"itemsAdded": itemsAdded,
	})
}

func (api *CronAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := api.newsletterSvc.RunGenerateBatch(r.Context()); err != nil {
		api.logger.Error("Cron generate failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "batch generate failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (api *CronAPI) handleSend(w http.ResponseWriter, r *http.Request) {
	if err := api.newsletterSvc.RunSendBatch(r.Context()); err != nil {
		api.logger.Error("Cron send failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "batch send failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
