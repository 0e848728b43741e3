package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Librarian
		Mail
		Scheduler
		Tasks
		Audit
		Redis
		CORS
	}

	HTTP struct {
		Port int32
		Host string
		HSTS bool // Send Strict-Transport-Security; enable only behind TLS
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver string // "sqlite" (default) or "postgres"
		Path   string // SQLite file path
		DSN    string // Postgres connection string
		Debug  bool   // Log every SQL statement
	}
	Auth struct {
		JWTSecret   string // Auto-generated if empty (tokens then die with the process)
		TokenExpiry time.Duration
		BcryptCost  int

		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}
	// Librarian is the account seeded on startup when no librarian exists.
	Librarian struct {
		Email    string
		Username string
		Password string
	}
	Mail struct {
		Enabled          bool // When false, messages are logged instead of sent
		Host             string
		Port             int
		Username         string
		Password         string
		From             string
		LibrarianAddress string
	}
	Scheduler struct {
		Enabled               bool
		ExpirySweepSchedule   string
		DailyReminderSchedule string
		MonthlyReportSchedule string
		AuditCleanupSchedule  string
		LockTTL               time.Duration
	}
	Tasks struct {
		Enabled           bool
		DBPath            string // Defaults to "<database>-tasks.db" next to the main database
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Audit struct {
		RetentionDays int
	}
	Redis struct {
		URL string // Empty disables the distributed job lock
	}
	CORS struct {
		AllowedOrigins []string
	}
)

func NewConfig() *Config {
	// A missing .env is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 5000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("http_hsts", false)
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_debug", false)

	// Auth defaults
	v.SetDefault("jwt_secret", "")
	v.SetDefault("auth_token_expiry", "1h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	v.SetDefault("librarian_email", "librarian@iitm.in")
	v.SetDefault("librarian_username", "librarian")
	v.SetDefault("librarian_password", DefaultLibrarianPassword)

	// Mail defaults target a local MailHog relay
	v.SetDefault("mail_enabled", true)
	v.SetDefault("mail_host", "localhost")
	v.SetDefault("mail_port", 1025)
	v.SetDefault("mail_username", "")
	v.SetDefault("mail_password", "")
	v.SetDefault("mail_from", DefaultLibrarianAddress)
	v.SetDefault("mail_librarian_address", DefaultLibrarianAddress)

	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("expiry_sweep_schedule", DefaultExpirySweepSchedule)
	v.SetDefault("daily_reminder_schedule", DefaultDailyReminderSchedule)
	v.SetDefault("monthly_report_schedule", DefaultMonthlyReportSchedule)
	v.SetDefault("audit_cleanup_schedule", DefaultAuditCleanupSchedule)
	v.SetDefault("scheduler_lock_ttl", "10m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_db_path", "")
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("redis_url", "")
	v.SetDefault("allowed_origins", "http://localhost:8080")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
			HSTS: v.GetBool("HTTP_HSTS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
			Debug:  v.GetBool("DATABASE_DEBUG"),
		},
		Auth: Auth{
			JWTSecret:        v.GetString("JWT_SECRET"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Librarian: Librarian{
			Email:    v.GetString("LIBRARIAN_EMAIL"),
			Username: v.GetString("LIBRARIAN_USERNAME"),
			Password: v.GetString("LIBRARIAN_PASSWORD"),
		},
		Mail: Mail{
			Enabled:          v.GetBool("MAIL_ENABLED"),
			Host:             v.GetString("MAIL_HOST"),
			Port:             v.GetInt("MAIL_PORT"),
			Username:         v.GetString("MAIL_USERNAME"),
			Password:         v.GetString("MAIL_PASSWORD"),
			From:             v.GetString("MAIL_FROM"),
			LibrarianAddress: v.GetString("MAIL_LIBRARIAN_ADDRESS"),
		},
		Scheduler: Scheduler{
			Enabled:               v.GetBool("SCHEDULER_ENABLED"),
			ExpirySweepSchedule:   v.GetString("EXPIRY_SWEEP_SCHEDULE"),
			DailyReminderSchedule: v.GetString("DAILY_REMINDER_SCHEDULE"),
			MonthlyReportSchedule: v.GetString("MONTHLY_REPORT_SCHEDULE"),
			AuditCleanupSchedule:  v.GetString("AUDIT_CLEANUP_SCHEDULE"),
			LockTTL:               v.GetDuration("SCHEDULER_LOCK_TTL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			DBPath:            v.GetString("TASKS_DB_PATH"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Redis: Redis{
			URL: v.GetString("REDIS_URL"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
	}
}

// splitList turns a comma-separated env value into a trimmed slice.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UsesDefaultPassword reports whether the seeded librarian still has the
// built-in password.
func (l Librarian) UsesDefaultPassword() bool {
	return l.Password == DefaultLibrarianPassword
}
