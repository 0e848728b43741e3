// Package lending implements the loan request lifecycle and feedback rules.
//
//	requested --grant (fewer than 5 held)--> granted
//	requested --revoke--> revoked
//	granted   --revoke--> revoked
//	granted   --return (owner only)--> returned
//	granted   --sweep (due date passed)--> revoked
//
// Every mutation runs in one transaction that locks the borrower and recounts
// their granted loans before committing, so users.no_of_books always equals
// the number of granted requests.
package lending

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/pranshh/library-management-mad2/internal/apperror"
	"github.com/pranshh/library-management-mad2/internal/audit"
	"github.com/pranshh/library-management-mad2/internal/database/catalog"
	"github.com/pranshh/library-management-mad2/internal/database/loans"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

const (
	// MaxActiveLoans is the number of granted requests a user may hold.
	MaxActiveLoans = 5
	// LoanPeriod is how long a granted loan lasts.
	LoanPeriod = 7 * 24 * time.Hour
)

// Service runs lending operations against the database.
type Service struct {
	db        *gorm.DB
	audit     *audit.Service
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewService creates a lending service. auditor may be nil.
func NewService(db *gorm.DB, auditor *audit.Service) *Service {
	return &Service{
		db:        db,
		audit:     auditor,
		sanitizer: bluemonday.StrictPolicy(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequestView is a request joined with its borrower and ebook names.
type RequestView struct {
	RequestID     uint                   `json:"request_id"`
	UserID        uint                   `json:"user_id"`
	Username      string                 `json:"username"`
	EbookID       uint                   `json:"ebook_id"`
	EbookName     string                 `json:"ebook_name"`
	Status        entities.RequestStatus `json:"status"`
	DateRequested time.Time              `json:"date_requested"`
	DateGranted   *time.Time             `json:"date_granted"`
	DateRevoked   *time.Time             `json:"date_revoked"`
	DateReturned  *time.Time             `json:"date_returned"`
	ReturnDate    *time.Time             `json:"return_date"`
}

// ExpiredLoan describes a loan revoked by the sweep.
type ExpiredLoan struct {
	RequestID uint   `json:"request_id"`
	EbookName string `json:"ebook_name"`
	User      string `json:"user"`
}

// Borrower groups the loans one user currently holds.
type Borrower struct {
	UserID   uint          `json:"user_id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Loans    []LoanSummary `json:"loans"`
}

// LoanSummary is a granted loan as shown in reminders.
type LoanSummary struct {
	RequestID uint      `json:"request_id"`
	EbookName string    `json:"ebook_name"`
	DueDate   time.Time `json:"due_date"`
}

// CreateRequest files a new request for ebookID on behalf of userID.
func (s *Service) CreateRequest(ctx context.Context, userID, ebookID uint) (*entities.Request, error) {
	var created *entities.Request
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := loans.NewRepository(tx)
		if _, err := catalog.NewRepository(tx).GetEbook(ebookID); err != nil {
			return err
		}
		if err := lockBorrower(repo, userID); err != nil {
			return err
		}

		held, err := repo.CountGranted(userID)
		if err != nil {
			return err
		}
		if held >= MaxActiveLoans {
			return ErrLimitExceeded
		}

		pending, err := repo.HasOutstanding(userID, ebookID)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicateRequest
		}

		created = &entities.Request{
			UserID:        userID,
			EbookID:       ebookID,
			Status:        entities.RequestStatusRequested,
			DateRequested: s.now(),
		}
		return repo.Create(created)
	})
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.audit.LogLending(userID, "request_create", created.ID,
		fmt.Sprintf("Requested ebook %d", ebookID), nil)
	return created, nil
}

// UpdateRequestStatus grants or revokes a request on behalf of a librarian.
func (s *Service) UpdateRequestStatus(ctx context.Context, librarianID, requestID uint, status entities.RequestStatus) (*entities.Request, error) {
	if status != entities.RequestStatusGranted && status != entities.RequestStatusRevoked {
		return nil, ErrUnknownStatus
	}

	var updated *entities.Request
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := loans.NewRepository(tx)
		req, err := lockRequest(repo, requestID)
		if err != nil {
			return err
		}
		if req.Status.IsTerminal() {
			return ErrInvalidTransition
		}
		if err := lockBorrower(repo, req.UserID); err != nil {
			return err
		}

		now := s.now()
		switch status {
		case entities.RequestStatusGranted:
			if req.Status != entities.RequestStatusRequested {
				return ErrInvalidTransition
			}
			held, err := repo.CountGranted(req.UserID)
			if err != nil {
				return err
			}
			if held >= MaxActiveLoans {
				return ErrLimitExceeded
			}
			due := now.Add(LoanPeriod)
			req.Status = entities.RequestStatusGranted
			req.DateGranted = &now
			req.ReturnDate = &due
		case entities.RequestStatusRevoked:
			req.Status = entities.RequestStatusRevoked
			req.DateRevoked = &now
		}

		if err := repo.Save(req); err != nil {
			return err
		}
		if _, err := repo.SyncLoanCount(req.UserID); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.audit.LogLending(librarianID, "request_"+string(status), requestID,
		fmt.Sprintf("Request %d %s", requestID, status), nil)
	return updated, nil
}

// ReturnRequest lets a borrower hand back a granted ebook.
func (s *Service) ReturnRequest(ctx context.Context, userID, requestID uint) (*entities.Request, error) {
	var returned *entities.Request
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := loans.NewRepository(tx)
		req, err := lockRequest(repo, requestID)
		if err != nil {
			return err
		}
		if req.UserID != userID || req.Status != entities.RequestStatusGranted {
			return ErrInvalidOperation
		}
		if err := lockBorrower(repo, req.UserID); err != nil {
			return err
		}

		now := s.now()
		req.Status = entities.RequestStatusReturned
		req.DateReturned = &now
		if err := repo.Save(req); err != nil {
			return err
		}
		if _, err := repo.SyncLoanCount(req.UserID); err != nil {
			return err
		}
		returned = req
		return nil
	})
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.audit.LogLending(userID, "request_return", requestID,
		fmt.Sprintf("Returned request %d", requestID), nil)
	return returned, nil
}

// AutoExpireSweep revokes every granted loan due at or before now. Each loan
// is revoked in its own transaction; a failure is recorded and the sweep
// moves on. The returned slice lists the loans revoked by this run.
func (s *Service) AutoExpireSweep(ctx context.Context, now time.Time) ([]ExpiredLoan, error) {
	now = now.UTC()
	ids, err := loans.NewRepository(s.db.WithContext(ctx)).ListOverdueIDs(now)
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	expired := make([]ExpiredLoan, 0, len(ids))
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		loan, err := s.expireOne(ctx, id, now)
		if err != nil {
			log.Printf("Failed to expire request %d: %v", id, err)
			s.audit.LogLending(0, "request_expire", id, fmt.Sprintf("Expire request %d", id), err)
			errs = append(errs, fmt.Errorf("request %d: %w", id, err))
			continue
		}
		if loan == nil {
			continue
		}
		s.audit.LogLending(0, "request_expire", id,
			fmt.Sprintf("Revoked overdue loan of %q held by %s", loan.EbookName, loan.User), nil)
		expired = append(expired, *loan)
	}

	return expired, errors.Join(errs...)
}

func (s *Service) expireOne(ctx context.Context, id uint, now time.Time) (*ExpiredLoan, error) {
	var loan *ExpiredLoan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := loans.NewRepository(tx)
		req, err := repo.GetForUpdate(id)
		if err != nil {
			return err
		}
		// Returned or revoked since the scan.
		if req.Status != entities.RequestStatusGranted || req.ReturnDate == nil || req.ReturnDate.After(now) {
			return nil
		}
		if err := lockBorrower(repo, req.UserID); err != nil {
			return err
		}

		req.Status = entities.RequestStatusRevoked
		req.DateRevoked = &now
		if err := repo.Save(req); err != nil {
			return err
		}
		if _, err := repo.SyncLoanCount(req.UserID); err != nil {
			return err
		}

		full, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		loan = &ExpiredLoan{RequestID: id, EbookName: full.Ebook.Name, User: full.User.Username}
		return nil
	})
	return loan, err
}

// ListRequests returns every request for librarians and the caller's own
// requests otherwise.
func (s *Service) ListRequests(ctx context.Context, userID uint, librarian bool) ([]RequestView, error) {
	filter := userID
	if librarian {
		filter = 0
	}
	reqs, err := loans.NewRepository(s.db.WithContext(ctx)).List(filter)
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	views := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		view := RequestView{
			RequestID:     r.ID,
			UserID:        r.UserID,
			EbookID:       r.EbookID,
			Status:        r.Status,
			DateRequested: r.DateRequested,
			DateGranted:   r.DateGranted,
			DateRevoked:   r.DateRevoked,
			DateReturned:  r.DateReturned,
			ReturnDate:    r.ReturnDate,
		}
		if r.User != nil {
			view.Username = r.User.Username
		}
		if r.Ebook != nil {
			view.EbookName = r.Ebook.Name
		}
		views = append(views, view)
	}
	return views, nil
}

// Borrowers returns users currently holding loans with their loans attached.
// A non-zero userID restricts the result to that user.
func (s *Service) Borrowers(ctx context.Context, userID uint) ([]Borrower, error) {
	active, err := loans.NewRepository(s.db.WithContext(ctx)).ListActiveLoans(userID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	var borrowers []Borrower
	for _, r := range active {
		if r.User == nil || r.Ebook == nil || r.ReturnDate == nil {
			continue
		}
		if n := len(borrowers); n == 0 || borrowers[n-1].UserID != r.UserID {
			borrowers = append(borrowers, Borrower{
				UserID:   r.UserID,
				Username: r.User.Username,
				Email:    r.User.Email,
			})
		}
		b := &borrowers[len(borrowers)-1]
		b.Loans = append(b.Loans, LoanSummary{RequestID: r.ID, EbookName: r.Ebook.Name, DueDate: *r.ReturnDate})
	}
	return borrowers, nil
}

func lockBorrower(repo *loans.Repository, userID uint) error {
	_, err := repo.LockUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

func lockRequest(repo *loans.Repository, requestID uint) (*entities.Request, error) {
	req, err := repo.GetForUpdate(requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	return req, err
}
