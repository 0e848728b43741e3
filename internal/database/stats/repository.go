// Package stats provides read-only aggregate queries for dashboards and reports.
package stats

import (
	"time"

	"gorm.io/gorm"

	"github.com/pranshh/library-management-mad2/internal/entities"
)

// UserStats are the per-user counters shown on the profile page.
type UserStats struct {
	BooksRequested  int64 `json:"books_requested"`
	RequestsGranted int64 `json:"requests_granted"`
	RequestsRevoked int64 `json:"requests_revoked"`
	BooksReturned   int64 `json:"books_returned"`
	FeedbacksGiven  int64 `json:"feedbacks_given"`
}

// Dashboard holds the librarian's library-wide counters.
type Dashboard struct {
	ActiveUsers     int64 `json:"active_users"`
	PendingRequests int64 `json:"pending_requests"`
	GrantedRequests int64 `json:"granted_requests"`
	RevokedRequests int64 `json:"revoked_requests"`
	TotalReturns    int64 `json:"total_returns"`
	TotalFeedbacks  int64 `json:"total_feedbacks"`
}

// EbookCount pairs an ebook with how often it was requested.
type EbookCount struct {
	EbookID   uint   `json:"ebook_id"`
	EbookName string `json:"ebook_name"`
	Count     int64  `json:"count"`
}

// MonthlyReport summarizes lending activity in [Start, End).
type MonthlyReport struct {
	Start         time.Time    `json:"start"`
	End           time.Time    `json:"end"`
	TotalRequests int64        `json:"total_requests"`
	TotalReturns  int64        `json:"total_returns"`
	TopEbooks     []EbookCount `json:"top_ebooks"`
}

// TopEbooksLimit caps the most-requested list in the monthly report.
const TopEbooksLimit = 5

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) countRequests(query any, args ...any) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Request{}).Where(query, args...).Count(&count).Error
	return count, err
}

// UserStats counts a user's requests per status and their feedback.
func (r *Repository) UserStats(userID uint) (*UserStats, error) {
	var s UserStats
	var err error

	if s.BooksRequested, err = r.countRequests("user_id = ?", userID); err != nil {
		return nil, err
	}
	if s.RequestsGranted, err = r.countRequests("user_id = ? AND status = ?", userID, entities.RequestStatusGranted); err != nil {
		return nil, err
	}
	if s.RequestsRevoked, err = r.countRequests("user_id = ? AND status = ?", userID, entities.RequestStatusRevoked); err != nil {
		return nil, err
	}
	if s.BooksReturned, err = r.countRequests("user_id = ? AND status = ?", userID, entities.RequestStatusReturned); err != nil {
		return nil, err
	}
	if err = r.db.Model(&entities.Feedback{}).Where("user_id = ?", userID).Count(&s.FeedbacksGiven).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Dashboard computes library-wide counters. Active users are users holding at
// least one granted loan.
func (r *Repository) Dashboard() (*Dashboard, error) {
	var d Dashboard
	var err error

	err = r.db.Model(&entities.Request{}).
		Where("status = ?", entities.RequestStatusGranted).
		Distinct("user_id").Count(&d.ActiveUsers).Error
	if err != nil {
		return nil, err
	}
	if d.PendingRequests, err = r.countRequests("status = ?", entities.RequestStatusRequested); err != nil {
		return nil, err
	}
	if d.GrantedRequests, err = r.countRequests("status = ?", entities.RequestStatusGranted); err != nil {
		return nil, err
	}
	if d.RevokedRequests, err = r.countRequests("status = ?", entities.RequestStatusRevoked); err != nil {
		return nil, err
	}
	if d.TotalReturns, err = r.countRequests("status = ?", entities.RequestStatusReturned); err != nil {
		return nil, err
	}
	if err = r.db.Model(&entities.Feedback{}).Count(&d.TotalFeedbacks).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// MonthlyReport computes request and return totals plus the most requested
// ebooks for requests created in [start, end).
func (r *Repository) MonthlyReport(start, end time.Time) (*MonthlyReport, error) {
	report := &MonthlyReport{Start: start, End: end}
	var err error

	report.TotalRequests, err = r.countRequests("date_requested >= ? AND date_requested < ?", start, end)
	if err != nil {
		return nil, err
	}
	report.TotalReturns, err = r.countRequests(
		"status = ? AND date_returned >= ? AND date_returned < ?",
		entities.RequestStatusReturned, start, end)
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.Request{}).
		Select("ebooks.id AS ebook_id, ebooks.ebook_name AS ebook_name, COUNT(requests.id) AS count").
		Joins("JOIN ebooks ON ebooks.id = requests.ebook_id").
		Where("requests.date_requested >= ? AND requests.date_requested < ?", start, end).
		Group("ebooks.id, ebooks.ebook_name").
		Order("count DESC, ebooks.id").
		Limit(TopEbooksLimit).
		Scan(&report.TopEbooks).Error
	if err != nil {
		return nil, err
	}
	return report, nil
}
