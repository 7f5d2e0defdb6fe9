package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Logging   LoggingConfig
	Auth      AuthConfig
	AI        AIConfig
	Email     EmailConfig
	Scheduler SchedulerConfig
	Scrape    ScrapeConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	TTL       time.Duration
	RedisAddr string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// AIConfig holds generative-text backend settings. The endpoint speaks the
// OpenAI chat-completions wire format.
type AIConfig struct {
	Endpoint    string
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// EmailConfig holds newsletter delivery settings
type EmailConfig struct {
	Endpoint    string
	APIKey      string
	SenderEmail string
	SenderName  string
	Timeout     time.Duration
}

// SchedulerConfig holds batch-job settings
type SchedulerConfig struct {
	Enabled    bool
	CronSecret string
	ScrapeSpec string // cron spec for the batch scrape job
}

// ScrapeConfig holds shared scraper settings
type ScrapeConfig struct {
	Timeout      time.Duration
	MaxItems     int
	UserAgent    string
	RateLimitDur time.Duration
	ApifyToken   string
}

// Load parses flags and environment variables to build configuration
func Load() *Config {
	cfg := &Config{}

	httpAddr := flag.String("http", ":8080", "HTTP server address")
	cacheTTL := flag.Duration("cache-ttl", 5*time.Minute, "Cache TTL for dashboard stats")
	cacheBackend := flag.String("cache-backend", "memory", "Cache backend: memory or redis")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser := flag.String("db-user", "postgres", "PostgreSQL user")
	dbPassword := flag.String("db-password", "postgres", "PostgreSQL password")
	dbName := flag.String("db-name", "creatorpulse", "PostgreSQL database name")
	dbSSLMode := flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")
	schedulerEnabled := flag.Bool("scheduler", true, "Run hourly generate/send jobs in-process")
	rateLimitDur := flag.Duration("rate-limit", time.Second, "Minimum delay between requests to same host")

	flag.Parse()

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		*httpAddr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*cacheTTL = d
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		*cacheBackend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		*dbHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			*dbPort = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		*dbUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		*dbPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		*dbName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		*dbSSLMode = v
	}
	if v := os.Getenv("SCHEDULER_ENABLED"); v == "false" || v == "0" {
		*schedulerEnabled = false
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*rateLimitDur = d
		}
	}

	cfg.Server = ServerConfig{HTTPAddr: *httpAddr}
	cfg.Cache = CacheConfig{Backend: *cacheBackend, TTL: *cacheTTL, RedisAddr: *redisAddr}
	cfg.Database = DatabaseConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPassword,
		Database: *dbName,
		SSLMode:  *dbSSLMode,
	}
	cfg.Logging = LoggingConfig{Level: *logLevel}
	cfg.Auth = loadAuthConfig()
	cfg.AI = loadAIConfig()
	cfg.Email = loadEmailConfig()
	cfg.Scheduler = SchedulerConfig{
		Enabled:    *schedulerEnabled,
		CronSecret: os.Getenv("CRON_SECRET"),
		ScrapeSpec: getEnvOrDefault("SCRAPE_CRON_SPEC", "0 */6 * * *"),
	}
	cfg.Scrape = loadScrapeConfig(*rateLimitDur)

	return cfg
}

func loadAuthConfig() AuthConfig {
	accessTTL := 15 * time.Minute
	if v := os.Getenv("AUTH_ACCESS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			accessTTL = d
		}
	}

	return AuthConfig{
		JWTSecret:      getEnvOrDefault("AUTH_JWT_SECRET", "change-me-in-production"),
		JWTIssuer:      getEnvOrDefault("AUTH_JWT_ISSUER", "creatorpulse"),
		JWTAudience:    getEnvOrDefault("AUTH_JWT_AUDIENCE", "creatorpulse-users"),
		AccessTokenTTL: accessTTL,
	}
}

func loadAIConfig() AIConfig {
	timeout := 60 * time.Second
	if v := os.Getenv("AI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			timeout = d
		}
	}

	maxTokens := 4000
	if v := os.Getenv("AI_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxTokens = n
		}
	}

	temperature := 0.7
	if v := os.Getenv("AI_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			temperature = f
		}
	}

	return AIConfig{
		Endpoint:    getEnvOrDefault("AI_ENDPOINT", "https://api.groq.com/openai/v1/chat/completions"),
		Model:       getEnvOrDefault("AI_MODEL", "llama-3.1-70b-versatile"),
		APIKey:      os.Getenv("AI_API_KEY"),
		Timeout:     timeout,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

func loadEmailConfig() EmailConfig {
	timeout := 15 * time.Second
	if v := os.Getenv("EMAIL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			timeout = d
		}
	}

	return EmailConfig{
		Endpoint:    getEnvOrDefault("EMAIL_ENDPOINT", "https://api.resend.com/emails"),
		APIKey:      os.Getenv("EMAIL_API_KEY"),
		SenderEmail: getEnvOrDefault("EMAIL_SENDER", "newsletter@creatorpulse.dev"),
		SenderName:  getEnvOrDefault("EMAIL_SENDER_NAME", "CreatorPulse"),
		Timeout:     timeout,
	}
}

func loadScrapeConfig(rateLimitDur time.Duration) ScrapeConfig {
	timeout := 30 * time.Second
	if v := os.Getenv("SCRAPE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			timeout = d
		}
	}

	maxItems := 50
	if v := os.Getenv("SCRAPE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxItems = n
		}
	}

	return ScrapeConfig{
		Timeout:      timeout,
		MaxItems:     maxItems,
		UserAgent:    getEnvOrDefault("SCRAPE_USER_AGENT", "CreatorPulse/1.0"),
		RateLimitDur: rateLimitDur,
		ApifyToken:   os.Getenv("APIFY_TOKEN"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
