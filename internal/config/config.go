package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/leca/photo-editor/internal/editor"
	"github.com/leca/photo-editor/internal/imageproc"
	"github.com/leca/photo-editor/internal/quota"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheDisk   = "disk"
)

type Config struct {
	ListenAddr string
	DBPath     string
	AuthToken  string
	AdminToken string

	FreeDailyLimit    int
	PremiumDailyLimit int
	PremiumDays       int
	GrantPolicy       quota.GrantPolicy
	UnknownAction     imageproc.UnknownActionPolicy
	Location          *time.Location

	CacheBackend    string
	CacheTTL        time.Duration
	CacheMaxEntries int
	CacheMaxBytes   int64
	CacheDir        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	AIAPIKey  string
	AIBaseURL string
	AIModel   string
	AITimeout time.Duration

	MaxUploadBytes int64
	MaxPixels      int64
	Workers        int
	LogLevel       slog.Level
}

// Load reads PHOTO_* variables. Values from the given .env files (default
// ".env") fill in variables the environment does not already set.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		ListenAddr: getEnv("PHOTO_LISTEN_ADDR", ":8080"),
		DBPath:     getEnv("PHOTO_DB_PATH", "/data/db/photo-editor.db"),
		AuthToken:  getEnv("PHOTO_AUTH_TOKEN", ""),
		AdminToken: getEnv("PHOTO_ADMIN_TOKEN", ""),

		FreeDailyLimit:    getEnvInt("PHOTO_FREE_DAILY_LIMIT", quota.DefaultFreeDailyLimit),
		PremiumDailyLimit: getEnvInt("PHOTO_PREMIUM_DAILY_LIMIT", quota.DefaultPremiumDailyLimit),
		PremiumDays:       getEnvInt("PHOTO_PREMIUM_DAYS", 30),

		CacheBackend:    strings.ToLower(getEnv("PHOTO_CACHE_BACKEND", CacheMemory)),
		CacheTTL:        getEnvDuration("PHOTO_CACHE_TTL", 24*time.Hour),
		CacheMaxEntries: getEnvInt("PHOTO_CACHE_MAX_ENTRIES", 1000),
		CacheMaxBytes:   int64(getEnvInt("PHOTO_CACHE_MAX_BYTES", 512<<20)),
		CacheDir:        getEnv("PHOTO_CACHE_DIR", "/data/photos"),
		RedisAddr:       getEnv("PHOTO_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:   getEnv("PHOTO_REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("PHOTO_REDIS_DB", 0),

		AIAPIKey:  getEnv("PHOTO_AI_API_KEY", ""),
		AIBaseURL: getEnv("PHOTO_AI_BASE_URL", ""),
		AIModel:   getEnv("PHOTO_AI_MODEL", ""),
		AITimeout: getEnvDuration("PHOTO_AI_TIMEOUT", 60*time.Second),

		MaxUploadBytes: int64(getEnvInt("PHOTO_MAX_UPLOAD_BYTES", 20<<20)),
		MaxPixels:      int64(getEnvInt("PHOTO_MAX_PIXELS", int(editor.DefaultMaxPixels))),
		Workers:        getEnvInt("PHOTO_WORKERS", 0),
	}

	var err error
	if cfg.GrantPolicy, err = quota.ParseGrantPolicy(getEnv("PHOTO_GRANT_POLICY", "overwrite")); err != nil {
		return nil, err
	}
	if cfg.UnknownAction, err = imageproc.ParseUnknownActionPolicy(strings.ToLower(getEnv("PHOTO_UNKNOWN_ACTION", "passthrough"))); err != nil {
		return nil, fmt.Errorf("PHOTO_UNKNOWN_ACTION: %w", err)
	}
	if cfg.Location, err = time.LoadLocation(getEnv("PHOTO_TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("PHOTO_TIMEZONE: %w", err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("PHOTO_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("PHOTO_LOG_LEVEL: %w", err)
	}
	switch cfg.CacheBackend {
	case CacheMemory, CacheRedis, CacheDisk:
	default:
		return nil, fmt.Errorf("PHOTO_CACHE_BACKEND: unknown backend %q", cfg.CacheBackend)
	}
	if cfg.CacheBackend == CacheMemory && cfg.CacheMaxBytes > 0 && cfg.CacheMaxBytes < cfg.MaxUploadBytes {
		return nil, fmt.Errorf("PHOTO_CACHE_MAX_BYTES (%d) is smaller than PHOTO_MAX_UPLOAD_BYTES (%d)", cfg.CacheMaxBytes, cfg.MaxUploadBytes)
	}
	if cfg.PremiumDays <= 0 {
		return nil, fmt.Errorf("PHOTO_PREMIUM_DAYS must be positive")
	}
	return cfg, nil
}

// AIEnabled reports whether an AI key is configured.
func (c *Config) AIEnabled() bool { return c.AIAPIKey != "" }

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var result int
	for _, c := range v {
		if c < '0' || c > '9' {
			return defaultValue
		}
		result = result*10 + int(c-'0')
	}
	return result
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
