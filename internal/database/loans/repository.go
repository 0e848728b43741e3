// Package loans provides database operations for loan requests.
//
// Mutating callers should build the repository on a transaction handle and
// lock the borrower first:
//
//	db.Transaction(func(tx *gorm.DB) error {
//		repo := loans.NewRepository(tx)
//		if _, err := repo.LockUser(userID); err != nil {
//			return err
//		}
//		...
//		_, err := repo.SyncLoanCount(userID)
//		return err
//	})
package loans

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pranshh/library-management-mad2/internal/entities"
)

// Repository handles loan request persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) forUpdate() *gorm.DB {
	return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockUser selects the borrower row FOR UPDATE. On SQLite the lock comes from
// the IMMEDIATE transaction instead.
func (r *Repository) LockUser(userID uint) (*entities.User, error) {
	var user entities.User
	if err := r.forUpdate().First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetForUpdate loads a request and locks its row.
func (r *Repository) GetForUpdate(id uint) (*entities.Request, error) {
	var req entities.Request
	if err := r.forUpdate().First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByID loads a request with its user and ebook.
func (r *Repository) GetByID(id uint) (*entities.Request, error) {
	var req entities.Request
	err := r.db.Preload("User").Preload("Ebook").First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) Create(req *entities.Request) error {
	return r.db.Create(req).Error
}

func (r *Repository) Save(req *entities.Request) error {
	return r.db.Save(req).Error
}

// CountGranted returns the live number of granted requests for a user.
func (r *Repository) CountGranted(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Request{}).
		Where("user_id = ? AND status = ?", userID, entities.RequestStatusGranted).
		Count(&count).Error
	return count, err
}

// HasOutstanding reports whether the user already has a pending request for the ebook.
func (r *Repository) HasOutstanding(userID, ebookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Request{}).
		Where("user_id = ? AND ebook_id = ? AND status = ?", userID, ebookID, entities.RequestStatusRequested).
		Count(&count).Error
	return count > 0, err
}

// HasBeenGranted reports whether the user holds or once held the ebook.
func (r *Repository) HasBeenGranted(userID, ebookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Request{}).
		Where("user_id = ? AND ebook_id = ? AND date_granted IS NOT NULL", userID, ebookID).
		Count(&count).Error
	return count > 0, err
}

// SyncLoanCount sets users.no_of_books to the live granted count and returns it.
func (r *Repository) SyncLoanCount(userID uint) (int, error) {
	count, err := r.CountGranted(userID)
	if err != nil {
		return 0, err
	}
	err = r.db.Model(&entities.User{}).Where("id = ?", userID).Update("no_of_books", count).Error
	return int(count), err
}

// ListOverdueIDs returns granted requests whose due date is at or before now.
func (r *Repository) ListOverdueIDs(now time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Request{}).
		Where("status = ? AND return_date <= ?", entities.RequestStatusGranted, now).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// List returns requests with user and ebook preloaded, newest first.
// A zero userID lists every request.
func (r *Repository) List(userID uint) ([]entities.Request, error) {
	var reqs []entities.Request
	query := r.db.Preload("User").Preload("Ebook").Order("date_requested DESC, id DESC")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Find(&reqs).Error
	return reqs, err
}

// ListActiveLoans returns granted requests grouped by user, soonest due first.
// A zero userID covers every borrower.
func (r *Repository) ListActiveLoans(userID uint) ([]entities.Request, error) {
	var reqs []entities.Request
	query := r.db.Preload("User").Preload("Ebook").
		Where("status = ?", entities.RequestStatusGranted)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Order("user_id, return_date").Find(&reqs).Error
	return reqs, err
}
