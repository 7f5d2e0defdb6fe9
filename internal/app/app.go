// Package app wires configuration, storage, services, and servers together.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorpulse/server/internal/ai"
	"github.com/creatorpulse/server/internal/auth"
	"github.com/creatorpulse/server/internal/cache"
	"github.com/creatorpulse/server/internal/config"
	"github.com/creatorpulse/server/internal/database"
	"github.com/creatorpulse/server/internal/delivery"
	"github.com/creatorpulse/server/internal/digest"
	"github.com/creatorpulse/server/internal/httpapi"
	"github.com/creatorpulse/server/internal/ingest"
	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/newsletter"
	"github.com/creatorpulse/server/internal/ratelimit"
	"github.com/creatorpulse/server/internal/schedule"
	"github.com/creatorpulse/server/internal/scrape"
	"github.com/creatorpulse/server/internal/voice"
)

// Items older than this are pruned after each batch scrape. Well past the
// 7-day curation window, so pruning never affects draft generation.
const contentRetention = 30 * 24 * time.Hour

// App holds all application dependencies
type App struct {
	Config         *config.Config
	Logger         *logging.Logger
	Cache          cache.Cache
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	IngestSvc      *ingest.Service
	NewsletterSvc  *newsletter.Service
	Trainer        *voice.Trainer
	HTTPServer     *httpapi.Server
	Runner         *schedule.Runner
	db             *database.DB
	userStore      *database.UserStore
	sourceStore    *database.SourceStore
	contentStore   *database.ContentStore
	draftStore     *database.DraftStore
	activityStore  *database.ActivityStore
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Initialize logger
	app.Logger = app.initLogger()

	// Initialize cache
	app.Cache = app.initCache()

	// Initialize database and stores
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	// Initialize services
	app.initServices()

	// Initialize servers and the in-process scheduler
	if err := app.initServers(); err != nil {
		return nil, err
	}

	return app, nil
}

// Run starts the HTTP server and, when enabled, the batch scheduler. It
// blocks until the server stops.
func (a *App) Run(ctx context.Context) error {
	if a.Runner != nil {
		a.Runner.Start()
		a.Logger.Info("Batch scheduler started", logging.WithField("scrape_spec", a.Config.Scheduler.ScrapeSpec))
	}

	a.Logger.Info("Starting HTTP server", logging.WithField("addr", a.Config.Server.HTTPAddr))
	return a.HTTPServer.Start(a.Config.Server.HTTPAddr)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.Runner != nil {
		a.Runner.Stop(ctx)
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Error("Database close error", logging.WithField("error", err.Error()))
		}
	}

	return nil
}

func (a *App) initLogger() *logging.Logger {
	level := logging.LevelInfo
	switch a.Config.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.New(level)
}

func (a *App) initCache() cache.Cache {
	switch a.Config.Cache.Backend {
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", a.Config.Cache.RedisAddr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr:   a.Config.Cache.RedisAddr,
			Prefix: "creatorpulse:",
		}, a.Config.Cache.TTL)
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			return cache.NewMemory(a.Config.Cache.TTL)
		}
		return redisCache
	default:
		a.Logger.Info("Using in-memory cache backend")
		return cache.NewMemory(a.Config.Cache.TTL)
	}
}

func (a *App) initDatabase() error {
	dbConfig := database.DefaultConfig()
	dbConfig.Host = a.Config.Database.Host
	dbConfig.Port = a.Config.Database.Port
	dbConfig.User = a.Config.Database.User
	dbConfig.Password = a.Config.Database.Password
	dbConfig.Database = a.Config.Database.Database
	dbConfig.SSLMode = a.Config.Database.SSLMode

	db, err := database.New(dbConfig)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	a.Logger.Info("Connected to PostgreSQL")
	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	a.db = db
	a.userStore = database.NewUserStore(db)
	a.sourceStore = database.NewSourceStore(db)
	a.contentStore = database.NewContentStore(db)
	a.draftStore = database.NewDraftStore(db)
	a.activityStore = database.NewActivityStore(db)

	return nil
}

func (a *App) initServices() {
	// Auth
	a.AuthService = auth.NewService(a.userStore, a.Config.Auth, a.Logger)
	a.AuthMiddleware = auth.NewMiddleware(a.AuthService)

	// Scraping and ingestion
	limiter := ratelimit.New(a.Config.Scrape.RateLimitDur)
	registry := scrape.NewRegistry(limiter, scrape.Config{
		Timeout:    a.Config.Scrape.Timeout,
		MaxItems:   a.Config.Scrape.MaxItems,
		UserAgent:  a.Config.Scrape.UserAgent,
		ApifyToken: a.Config.Scrape.ApifyToken,
	})
	a.IngestSvc = ingest.New(a.sourceStore, a.contentStore, a.activityStore, registry, a.Logger)

	// Generation and delivery
	generator := ai.NewClient(a.Config.AI)
	composer := digest.NewComposer(generator, a.draftStore, a.activityStore, a.Logger)
	sender := delivery.NewClient(a.Config.Email)
	a.NewsletterSvc = newsletter.New(a.userStore, a.contentStore, a.draftStore, a.activityStore, composer, sender, a.Logger)

	// Voice training
	a.Trainer = voice.NewTrainer(generator, a.userStore, a.activityStore, a.Logger)
}

func (a *App) initServers() error {
	a.HTTPServer = httpapi.New(
		a.AuthService,
		a.AuthMiddleware,
		a.sourceStore,
		a.draftStore,
		a.activityStore,
		a.contentStore,
		a.IngestSvc,
		a.NewsletterSvc,
		a.Trainer,
		a.Cache,
		a.Config.Scheduler.CronSecret,
		a.Logger,
	)

	if a.Config.Scheduler.Enabled {
		runner, err := schedule.NewRunner(&batchJobs{app: a}, a.Config.Scheduler.ScrapeSpec, a.Logger)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		a.Runner = runner
	}

	return nil
}

// batchJobs adapts the ingest and newsletter services to the scheduler's
// job surface. The scrape job also prunes expired content.
type batchJobs struct {
	app *App
}

func (b *batchJobs) RunScrapeBatch(ctx context.Context) error {
	if _, err := b.app.IngestSvc.RunBatch(ctx); err != nil {
		return err
	}

	cutoff := time.Now().Add(-contentRetention)
	pruned, err := b.app.contentStore.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		b.app.Logger.Warn("Content pruning failed", logging.WithField("error", err.Error()))
	} else if pruned > 0 {
		b.app.Logger.Info("Pruned expired content", logging.WithField("items", pruned))
	}

	return nil
}

func (b *batchJobs) RunGenerateBatch(ctx context.Context) error {
	return b.app.NewsletterSvc.RunGenerateBatch(ctx)
}

func (b *batchJobs) RunSendBatch(ctx context.Context) error {
	return b.app.NewsletterSvc.RunSendBatch(ctx)
}
