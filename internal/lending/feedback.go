package lending

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/pranshh/library-management-mad2/internal/apperror"
	"github.com/pranshh/library-management-mad2/internal/database/catalog"
	"github.com/pranshh/library-management-mad2/internal/database/feedback"
	"github.com/pranshh/library-management-mad2/internal/database/loans"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

const maxCommentLength = 1000

// FeedbackView is a feedback entry joined with user and ebook names.
type FeedbackView struct {
	FeedbackID  uint      `json:"feedback_id"`
	UserID      uint      `json:"user_id"`
	Username    string    `json:"username"`
	EbookID     uint      `json:"ebook_id"`
	EbookName   string    `json:"ebook_name"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	DateCreated time.Time `json:"date_created"`
}

// SubmitFeedback records a rating for an ebook the user holds or once held.
// Each user may rate an ebook once.
func (s *Service) SubmitFeedback(ctx context.Context, userID, ebookID uint, rating int, comment string) (*entities.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	// The policy strips markup but entity-encodes the text it keeps; store
	// plain text and leave escaping to whoever renders it.
	comment = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(comment)))
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}

	var created *entities.Feedback
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := catalog.NewRepository(tx).GetEbook(ebookID); err != nil {
			return err
		}
		granted, err := loans.NewRepository(tx).HasBeenGranted(userID, ebookID)
		if err != nil {
			return err
		}
		if !granted {
			return ErrFeedbackNotAllowed
		}

		repo := feedback.NewRepository(tx)
		exists, err := repo.Exists(userID, ebookID)
		if err != nil {
			return err
		}
		if exists {
			return ErrFeedbackExists
		}

		created = &entities.Feedback{
			UserID:      userID,
			EbookID:     ebookID,
			Rating:      rating,
			Comment:     comment,
			DateCreated: s.now(),
		}
		if err := repo.Create(created); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrFeedbackExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.audit.LogFeedback(userID, "feedback_submit", created.ID, ebookID, rating)
	return created, nil
}

// DeleteFeedback removes a feedback entry.
func (s *Service) DeleteFeedback(ctx context.Context, librarianID, feedbackID uint) error {
	err := feedback.NewRepository(s.db.WithContext(ctx)).Delete(feedbackID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrFeedbackNotFound
	}
	if err != nil {
		return apperror.Persistence(err)
	}
	s.audit.LogFeedback(librarianID, "feedback_delete", feedbackID, 0, 0)
	return nil
}

// ListFeedback returns all feedback for librarians and the caller's own
// feedback otherwise.
func (s *Service) ListFeedback(ctx context.Context, userID uint, librarian bool) ([]FeedbackView, error) {
	filter := userID
	if librarian {
		filter = 0
	}
	items, err := feedback.NewRepository(s.db.WithContext(ctx)).List(filter)
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	views := make([]FeedbackView, 0, len(items))
	for _, f := range items {
		view := FeedbackView{
			FeedbackID:  f.ID,
			UserID:      f.UserID,
			EbookID:     f.EbookID,
			Rating:      f.Rating,
			Comment:     f.Comment,
			DateCreated: f.DateCreated,
		}
		if f.User != nil {
			view.Username = f.User.Username
		}
		if f.Ebook != nil {
			view.EbookName = f.Ebook.Name
		}
		views = append(views, view)
	}
	return views, nil
}
