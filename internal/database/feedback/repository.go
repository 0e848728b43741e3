// Package feedback provides database operations for ebook feedback.
package feedback

import (
	"gorm.io/gorm"

	"github.com/pranshh/library-management-mad2/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(fb *entities.Feedback) error {
	return r.db.Create(fb).Error
}

// Exists reports whether the user already left feedback for the ebook.
func (r *Repository) Exists(userID, ebookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Feedback{}).
		Where("user_id = ? AND ebook_id = ?", userID, ebookID).
		Count(&count).Error
	return count > 0, err
}

// Delete removes a feedback entry. Returns gorm.ErrRecordNotFound when absent.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Feedback{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns feedback with user and ebook preloaded, newest first.
// A zero userID lists all feedback.
func (r *Repository) List(userID uint) ([]entities.Feedback, error) {
	var items []entities.Feedback
	query := r.db.Preload("User").Preload("Ebook").Order("date_created DESC, id DESC")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Find(&items).Error
	return items, err
}
