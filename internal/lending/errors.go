package lending

import "github.com/pranshh/library-management-mad2/internal/apperror"

var (
	ErrLimitExceeded     = apperror.New(apperror.ErrConflict, "limit_exceeded", "User has already borrowed the maximum of 5 e-books")
	ErrDuplicateRequest  = apperror.New(apperror.ErrConflict, "duplicate_request", "You have already requested this e-book")
	ErrInvalidOperation  = apperror.New(apperror.ErrValidation, "invalid_operation", "Invalid return request")
	ErrInvalidTransition = apperror.New(apperror.ErrValidation, "invalid_transition", "Request status cannot be changed from its current state")
	ErrUnknownStatus     = apperror.New(apperror.ErrValidation, "invalid_status", "Status must be granted or revoked")
	ErrRequestNotFound   = apperror.NotFound("Request not found")
	ErrUserNotFound      = apperror.NotFound("User not found")

	ErrFeedbackNotAllowed = apperror.New(apperror.ErrForbidden, "feedback_not_allowed", "You can only provide feedback for books you have been granted access to")
	ErrFeedbackExists     = apperror.New(apperror.ErrConflict, "feedback_exists", "You have already provided feedback for this book")
	ErrInvalidRating      = apperror.Validation("Rating must be between 1 and 5")
	ErrCommentTooLong     = apperror.Validation("Comment must be at most 1000 characters")
	ErrFeedbackNotFound   = apperror.NotFound("Feedback not found")
)
