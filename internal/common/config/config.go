package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"insta-giveaway-backend"`

	Server struct {
		Port            int           `env:"PORT" envDefault:"8080"`
		Origin          []string      `env:"ORIGIN" envSeparator:"," envDefault:"http://localhost:3000"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
		// per client IP
		RateLimitRPS   float64 `env:"HTTP_RATE_LIMIT_RPS" envDefault:"10"`
		RateLimitBurst int     `env:"HTTP_RATE_LIMIT_BURST" envDefault:"20"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"giveaways"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
		AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
		// authenticated users are cached for this long
		UserCacheTTL time.Duration `env:"REDIS_USER_CACHE_TTL" envDefault:"5m"`
	}

	Instagram struct {
		ClientID     string        `env:"INSTAGRAM_CLIENT_ID"`
		ClientSecret string        `env:"INSTAGRAM_CLIENT_SECRET"`
		RedirectURI  string        `env:"INSTAGRAM_REDIRECT_URI" envDefault:"http://localhost:8080/api/v1/instagram/auth/callback/"`
		Timeout      time.Duration `env:"INSTAGRAM_TIMEOUT" envDefault:"10s"`
		RateLimitRPS float64       `env:"INSTAGRAM_RATE_LIMIT_RPS" envDefault:"5"`
		RateBurst    int           `env:"INSTAGRAM_RATE_LIMIT_BURST" envDefault:"10"`
	}

	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	S3 struct {
		Endpoint  string `env:"S3_ENDPOINT"`
		Region    string `env:"S3_REGION" envDefault:"auto"`
		Bucket    string `env:"S3_BUCKET"`
		AccessKey string `env:"S3_ACCESS_KEY"`
		SecretKey string `env:"S3_SECRET_KEY"`
	}

	Scheduler struct {
		Enabled             bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
		ExpireInterval      time.Duration `env:"SCHEDULER_EXPIRE_INTERVAL" envDefault:"1m"`
		TokenRefresh        time.Duration `env:"SCHEDULER_TOKEN_REFRESH_INTERVAL" envDefault:"6h"`
		TokenRefreshWindow  time.Duration `env:"SCHEDULER_TOKEN_REFRESH_WINDOW" envDefault:"168h"`
		AnalyticsInterval   time.Duration `env:"SCHEDULER_ANALYTICS_INTERVAL" envDefault:"1h"`
		AuditExportInterval time.Duration `env:"SCHEDULER_AUDIT_EXPORT_INTERVAL" envDefault:"24h"`
	}

	Analytics struct {
		// Overview stats older than this are recomputed on read.
		StaleAfter time.Duration `env:"ANALYTICS_STALE_AFTER" envDefault:"1h"`
		CacheTTL   time.Duration `env:"ANALYTICS_CACHE_TTL" envDefault:"5m"`
	}

	Stream struct {
		Enabled  bool   `env:"AUDIT_STREAM_ENABLED" envDefault:"true"`
		Key      string `env:"AUDIT_STREAM_KEY" envDefault:"audit:events"`
		Group    string `env:"AUDIT_STREAM_GROUP" envDefault:"analytics_consumers"`
		Consumer string `env:"AUDIT_STREAM_CONSUMER" envDefault:"analytics_worker_1"`
	}
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	p := c.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// S3Enabled reports whether audit export has a bucket and credentials.
func (c *Config) S3Enabled() bool {
	return c.S3.Bucket != "" && c.S3.AccessKey != "" && c.S3.SecretKey != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// a missing .env is fine, production sets variables directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
