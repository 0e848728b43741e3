package http

import (
	"github.com/pranshh/library-management-mad2/internal/audit"
	"github.com/pranshh/library-management-mad2/internal/auth"
	"github.com/pranshh/library-management-mad2/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Catalog  CatalogStore
	Loans    LoanService
	Feedback FeedbackService
	Stats    StatsStore
	Database Pinger
	Auditor  *audit.Service

	// Authentication
	Accounts       auth.AccountService
	Profiles       ProfileService
	AuthMiddleware *auth.Middleware
	RateLimiter    *auth.RateLimiter

	// Audit log listing (optional)
	AuditLog AuditReader

	// Task queue and scheduler (optional)
	TaskQueue tasks.Queue
	Scheduler JobScheduler

	// CORS origins allowed to call the API. Empty allows none.
	AllowedOrigins []string
	// EnableHSTS sends Strict-Transport-Security when served behind TLS.
	EnableHSTS bool

	// Application info
	Version string
}
