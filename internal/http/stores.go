package http

import (
	"context"
	"time"

	"github.com/pranshh/library-management-mad2/internal/auth"
	dbaudit "github.com/pranshh/library-management-mad2/internal/database/audit"
	"github.com/pranshh/library-management-mad2/internal/database/stats"
	"github.com/pranshh/library-management-mad2/internal/entities"
	"github.com/pranshh/library-management-mad2/internal/lending"
	"github.com/pranshh/library-management-mad2/internal/scheduler"
)

// This file consolidates the store and service interfaces used by HTTP controllers.
// Each controller depends on the narrowest interface it needs so tests can
// substitute in-memory fakes.

// CatalogStore manages sections and ebooks.
type CatalogStore interface {
	CreateSection(section *entities.Section) error
	GetSection(id uint) (*entities.Section, error)
	ListSections() ([]entities.Section, error)
	UpdateSection(id uint, name, description string) (*entities.Section, error)
	DeleteSection(id uint) error

	CreateEbook(ebook *entities.Ebook) error
	GetEbook(id uint) (*entities.Ebook, error)
	ListEbooks(sectionID uint) ([]entities.Ebook, error)
	UpdateEbook(id uint, changes entities.Ebook) (*entities.Ebook, error)
	DeleteEbook(id uint) error
}

// LoanService runs the request lifecycle.
type LoanService interface {
	CreateRequest(ctx context.Context, userID, ebookID uint) (*entities.Request, error)
	UpdateRequestStatus(ctx context.Context, librarianID, requestID uint, status entities.RequestStatus) (*entities.Request, error)
	ReturnRequest(ctx context.Context, userID, requestID uint) (*entities.Request, error)
	AutoExpireSweep(ctx context.Context, now time.Time) ([]lending.ExpiredLoan, error)
	ListRequests(ctx context.Context, userID uint, librarian bool) ([]lending.RequestView, error)
}

// FeedbackService manages ebook ratings.
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, userID, ebookID uint, rating int, comment string) (*entities.Feedback, error)
	DeleteFeedback(ctx context.Context, librarianID, feedbackID uint) error
	ListFeedback(ctx context.Context, userID uint, librarian bool) ([]lending.FeedbackView, error)
}

// ProfileService reads and edits user accounts.
type ProfileService interface {
	GetUser(ctx context.Context, id uint) (*entities.User, error)
	ListUsers(ctx context.Context) ([]auth.UserSummary, error)
	UpdateProfile(ctx context.Context, userID uint, update auth.ProfileUpdate) (*entities.User, error)
}

// StatsStore provides per-user and library-wide counters.
type StatsStore interface {
	UserStats(userID uint) (*stats.UserStats, error)
	Dashboard() (*stats.Dashboard, error)
}

// AuditReader lists recorded audit events.
type AuditReader interface {
	ListEvents(filter dbaudit.Filter) ([]entities.AuditEvent, int64, error)
	History(requestID uint) ([]entities.AuditEvent, error)
}

// JobScheduler exposes the periodic jobs.
type JobScheduler interface {
	Status() []scheduler.JobStatus
	RunNow(ctx context.Context, name string) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping() error
}
