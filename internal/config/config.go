package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Library
		Summary
		UI
		Tasks
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Library struct {
		Path         string // Root that book filepaths are relative to
		ScanEnabled  bool
		ScanSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Summary struct {
		APIKey  string
		Model   string
		BaseURL string
		Timeout time.Duration
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		DisableSignups  bool
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
)

// SignupsDisabled reports whether the raw DISABLE_SIGNUPS value turns account
// creation off. Only "1" (surrounding whitespace ignored) counts.
func SignupsDisabled(raw string) bool {
	return strings.TrimSpace(raw) == "1"
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", DefaultPort)
	v.SetDefault("host", DefaultHost)
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("library_path", ".")
	v.SetDefault("library_scan_enabled", false)
	v.SetDefault("library_scan_schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("openai_model", DefaultSummaryModel)
	v.SetDefault("openai_base_url", DefaultSummaryBaseURL)
	v.SetDefault("openai_timeout", "60s")
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	// Authentication
	v.SetDefault("disable_signups", "")
	v.SetDefault("auth_session_secret", "")        // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "168h")  // 7 days
	v.SetDefault("auth_bcrypt_cost", 12)           // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", false)     // alaya listens on loopback by default
	v.SetDefault("auth_max_login_attempts", 5)     // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m")  // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")   // Lockout duration

	// Background tasks
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Library: Library{
			Path:         v.GetString("LIBRARY_PATH"),
			ScanEnabled:  v.GetBool("LIBRARY_SCAN_ENABLED"),
			ScanSchedule: v.GetString("LIBRARY_SCAN_SCHEDULE"),
		},
		Summary: Summary{
			APIKey:  strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
			Model:   v.GetString("OPENAI_MODEL"),
			BaseURL: v.GetString("OPENAI_BASE_URL"),
			Timeout: v.GetDuration("OPENAI_TIMEOUT"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			DisableSignups:   SignupsDisabled(v.GetString("DISABLE_SIGNUPS")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
	}
}
