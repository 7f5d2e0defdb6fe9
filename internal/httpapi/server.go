// Package httpapi exposes the REST surface: auth, sources, scraping, drafts,
// voice training, delivery, and the cron trigger endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/creatorpulse/server/internal/auth"
	"github.com/creatorpulse/server/internal/cache"
	"github.com/creatorpulse/server/internal/ingest"
	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
)

// AuthService is the authentication surface the API needs
type AuthService interface {
	Signup(ctx context.Context, params models.SignupParams) (*models.AuthResponse, error)
	Login(ctx context.Context, params models.LoginParams) (*models.AuthResponse, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// SourceStore is the source persistence surface the API needs
type SourceStore interface {
	Create(ctx context.Context, userID string, params models.CreateSourceParams) (*models.Source, error)
	Get(ctx context.Context, id, userID string) (*models.Source, error)
	List(ctx context.Context, userID string) ([]models.Source, error)
	Update(ctx context.Context, id, userID string, params models.UpdateSourceParams) (*models.Source, error)
	Delete(ctx context.Context, id, userID string) error
}

// DraftStore is the draft persistence surface the API needs
type DraftStore interface {
	Get(ctx context.Context, id, userID string) (*models.Draft, error)
	List(ctx context.Context, userID string, limit int) ([]models.Draft, error)
	Update(ctx context.Context, id, userID string, params models.UpdateDraftParams) (*models.Draft, error)
}

// ActivityStore reads the activity feed
type ActivityStore interface {
	List(ctx context.Context, userID string, limit int) ([]models.ActivityEvent, error)
}

// ContentStore is the content surface the dashboard needs
type ContentStore interface {
	CountForUser(ctx context.Context, userID string) (int, error)
}

// IngestService runs interactive and batch scrapes
type IngestService interface {
	RunForUser(ctx context.Context, userID string) ([]ingest.SourceResult, error)
	RunBatch(ctx context.Context) ([]ingest.SourceResult, error)
}

// NewsletterService generates and sends newsletters
type NewsletterService interface {
	GenerateForUser(ctx context.Context, userID string) (*models.Draft, error)
	SendForUser(ctx context.Context, userID string) (*models.Draft, error)
	RunGenerateBatch(ctx context.Context) error
	RunSendBatch(ctx context.Context) error
}

// VoiceTrainer trains writing-style profiles
type VoiceTrainer interface {
	Train(ctx context.Context, userID string, samples []string) (*models.VoiceProfile, error)
}

type Server struct {
	authSvc        AuthService
	authMiddleware *auth.Middleware
	sources        SourceStore
	drafts         DraftStore
	activity       ActivityStore
	content        ContentStore
	ingestSvc      IngestService
	newsletterSvc  NewsletterService
	trainer        VoiceTrainer
	cache          cache.Cache
	cronSecret     string
	logger         *logging.Logger
	server         *http.Server
}

func New(authSvc AuthService, authMiddleware *auth.Middleware, sources SourceStore, drafts DraftStore, activity ActivityStore, content ContentStore, ingestSvc IngestService, newsletterSvc NewsletterService, trainer VoiceTrainer, c cache.Cache, cronSecret string, logger *logging.Logger) *Server {
	return &Server{
		authSvc:        authSvc,
		authMiddleware: authMiddleware,
		sources:        sources,
		drafts:         drafts,
		activity:       activity,
		content:        content,
		ingestSvc:      ingestSvc,
		newsletterSvc:  newsletterSvc,
		trainer:        trainer,
		cache:          c,
		cronSecret:     cronSecret,
		logger:         logger,
	}
}

// Handler builds the route table. Split out from Start so tests can drive the
// mux directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	authAPI := NewAuthAPI(s.authSvc, s.authMiddleware, s.logger)
	authAPI.RegisterRoutes(mux, s.corsMiddleware)

	sourceAPI := NewSourceAPI(s.sources, s.ingestSvc, s.cache, s.authMiddleware, s.logger)
	sourceAPI.RegisterRoutes(mux, s.corsMiddleware)

	draftAPI := NewDraftAPI(s.drafts, s.newsletterSvc, s.cache, s.authMiddleware, s.logger)
	draftAPI.RegisterRoutes(mux, s.corsMiddleware)

	voiceAPI := NewVoiceAPI(s.trainer, s.authSvc, s.authMiddleware, s.logger)
	voiceAPI.RegisterRoutes(mux, s.corsMiddleware)

	dashboardAPI := NewDashboardAPI(s.sources, s.drafts, s.activity, s.content, s.cache, s.authMiddleware, s.logger)
	dashboardAPI.RegisterRoutes(mux, s.corsMiddleware)

	cronAPI := NewCronAPI(s.ingestSvc, s.newsletterSvc, s.cronSecret, s.logger)
	cronAPI.RegisterRoutes(mux, s.corsMiddleware)

	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // interactive scrapes can be slow
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
