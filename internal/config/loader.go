package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies COPYDESK_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known COPYDESK_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "COPYDESK_DATABASE_DSN")
	setStr(&cfg.Database.Host, "COPYDESK_DATABASE_HOST")
	setInt(&cfg.Database.Port, "COPYDESK_DATABASE_PORT")
	setStr(&cfg.Database.Database, "COPYDESK_DATABASE_NAME")
	setStr(&cfg.Database.User, "COPYDESK_DATABASE_USER")
	setStr(&cfg.Database.Password, "COPYDESK_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "COPYDESK_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "COPYDESK_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "COPYDESK_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "COPYDESK_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "COPYDESK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "COPYDESK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "COPYDESK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "COPYDESK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "COPYDESK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "COPYDESK_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "COPYDESK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "COPYDESK_S3_REGION")
	setStr(&cfg.S3.Bucket, "COPYDESK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "COPYDESK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "COPYDESK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "COPYDESK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "COPYDESK_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "COPYDESK_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "COPYDESK_SERVER_CORS_ORIGINS")
	setStringSlice(&cfg.Server.APIKeys, "COPYDESK_SERVER_API_KEYS")
	setInt(&cfg.Server.RateLimitPerMin, "COPYDESK_SERVER_RATE_LIMIT_PER_MIN")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "COPYDESK_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "COPYDESK_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "COPYDESK_ARCHIVE_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "COPYDESK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "COPYDESK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "COPYDESK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "COPYDESK_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "COPYDESK_MODE")
	setStr(&cfg.LogLevel, "COPYDESK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
