// Package catalog provides database operations for sections and ebooks.
//
// Deletes cascade in application code inside a single transaction: an ebook's
// feedback and requests go first, then the ebook, then (for sections) the
// section itself. Either every child row is removed or none is.
package catalog

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pranshh/library-management-mad2/internal/apperror"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

var (
	ErrSectionNotFound = apperror.NotFound("Section not found")
	ErrEbookNotFound   = apperror.NotFound("Ebook not found")
)

// Repository handles section and ebook persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// --- Sections ---

func (r *Repository) CreateSection(section *entities.Section) error {
	if section.DateCreated.IsZero() {
		section.DateCreated = time.Now()
	}
	return r.db.Create(section).Error
}

func (r *Repository) GetSection(id uint) (*entities.Section, error) {
	var section entities.Section
	if err := r.db.First(&section, id).Error; err != nil {
		return nil, notFound(err, ErrSectionNotFound)
	}
	return &section, nil
}

func (r *Repository) ListSections() ([]entities.Section, error) {
	var sections []entities.Section
	err := r.db.Order("id").Find(&sections).Error
	return sections, err
}

// UpdateSection overwrites name and description.
func (r *Repository) UpdateSection(id uint, name, description string) (*entities.Section, error) {
	section, err := r.GetSection(id)
	if err != nil {
		return nil, err
	}
	section.Name = name
	section.Description = description
	if err := r.db.Save(section).Error; err != nil {
		return nil, err
	}
	return section, nil
}

// DeleteSection removes a section with all its ebooks and their dependents.
func (r *Repository) DeleteSection(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var section entities.Section
		if err := tx.First(&section, id).Error; err != nil {
			return notFound(err, ErrSectionNotFound)
		}

		var ebookIDs []uint
		if err := tx.Model(&entities.Ebook{}).Where("section_id = ?", id).Pluck("id", &ebookIDs).Error; err != nil {
			return err
		}
		if err := deleteEbookDependents(tx, ebookIDs); err != nil {
			return err
		}
		if err := tx.Where("section_id = ?", id).Delete(&entities.Ebook{}).Error; err != nil {
			return err
		}
		return tx.Delete(&section).Error
	})
}

// --- Ebooks ---

// CreateEbook inserts an ebook after checking its section exists.
func (r *Repository) CreateEbook(ebook *entities.Ebook) error {
	if _, err := r.GetSection(ebook.SectionID); err != nil {
		return err
	}
	return r.db.Create(ebook).Error
}

func (r *Repository) GetEbook(id uint) (*entities.Ebook, error) {
	var ebook entities.Ebook
	if err := r.db.First(&ebook, id).Error; err != nil {
		return nil, notFound(err, ErrEbookNotFound)
	}
	return &ebook, nil
}

// ListEbooks returns all ebooks, or only those in sectionID when non-zero.
func (r *Repository) ListEbooks(sectionID uint) ([]entities.Ebook, error) {
	var ebooks []entities.Ebook
	query := r.db.Order("id")
	if sectionID != 0 {
		query = query.Where("section_id = ?", sectionID)
	}
	err := query.Find(&ebooks).Error
	return ebooks, err
}

// UpdateEbook overwrites the editable fields of an ebook.
func (r *Repository) UpdateEbook(id uint, changes entities.Ebook) (*entities.Ebook, error) {
	ebook, err := r.GetEbook(id)
	if err != nil {
		return nil, err
	}
	if changes.SectionID != ebook.SectionID {
		if _, err := r.GetSection(changes.SectionID); err != nil {
			return nil, err
		}
	}
	ebook.Name = changes.Name
	ebook.Author = changes.Author
	ebook.Content = changes.Content
	ebook.SectionID = changes.SectionID
	if err := r.db.Save(ebook).Error; err != nil {
		return nil, err
	}
	return ebook, nil
}

// DeleteEbook removes an ebook with its feedback and requests.
func (r *Repository) DeleteEbook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var ebook entities.Ebook
		if err := tx.First(&ebook, id).Error; err != nil {
			return notFound(err, ErrEbookNotFound)
		}
		if err := deleteEbookDependents(tx, []uint{id}); err != nil {
			return err
		}
		return tx.Delete(&ebook).Error
	})
}

// deleteEbookDependents removes feedback and requests for the given ebooks and
// recounts the loan totals of every user who lost a granted request.
func deleteEbookDependents(tx *gorm.DB, ebookIDs []uint) error {
	if len(ebookIDs) == 0 {
		return nil
	}

	var affectedUsers []uint
	err := tx.Model(&entities.Request{}).
		Where("ebook_id IN ? AND status = ?", ebookIDs, entities.RequestStatusGranted).
		Distinct().Pluck("user_id", &affectedUsers).Error
	if err != nil {
		return err
	}

	if err := tx.Where("ebook_id IN ?", ebookIDs).Delete(&entities.Feedback{}).Error; err != nil {
		return err
	}
	if err := tx.Where("ebook_id IN ?", ebookIDs).Delete(&entities.Request{}).Error; err != nil {
		return err
	}

	for _, userID := range affectedUsers {
		granted := tx.Model(&entities.Request{}).
			Select("COUNT(*)").
			Where("user_id = ? AND status = ?", userID, entities.RequestStatusGranted)
		if err := tx.Model(&entities.User{}).Where("id = ?", userID).
			Update("no_of_books", granted).Error; err != nil {
			return err
		}
	}
	return nil
}

func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
