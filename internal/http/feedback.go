package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pranshh/library-management-mad2/internal/auth"
	"github.com/pranshh/library-management-mad2/internal/lending"
)

// FeedbackController handles ebook ratings.
type FeedbackController struct {
	feedback FeedbackService
}

// NewFeedbackController creates a new FeedbackController.
func NewFeedbackController(feedback FeedbackService) *FeedbackController {
	return &FeedbackController{feedback: feedback}
}

// SubmitFeedbackBody is the payload for POST /api/feedback.
type SubmitFeedbackBody struct {
	EbookID uint   `json:"ebook_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// ListFeedback handles GET /api/feedback
// Librarians see all feedback; other users see their own.
func (fc *FeedbackController) ListFeedback(c *gin.Context) {
	views, err := fc.feedback.ListFeedback(c.Request.Context(), auth.GetUserID(c), auth.IsLibrarian(c))
	if err != nil {
		respondError(c, err, "list feedback")
		return
	}
	if views == nil {
		views = []lending.FeedbackView{}
	}
	c.JSON(http.StatusOK, views)
}

// SubmitFeedback handles POST /api/feedback
func (fc *FeedbackController) SubmitFeedback(c *gin.Context) {
	var body SubmitFeedbackBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindingError(c, err)
		return
	}

	fb, err := fc.feedback.SubmitFeedback(c.Request.Context(), auth.GetUserID(c), body.EbookID, body.Rating, body.Comment)
	if err != nil {
		respondError(c, err, "submit feedback")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Feedback submitted successfully",
		"feedback_id": fb.ID,
	})
}

// DeleteFeedback handles DELETE /api/feedback/:id
func (fc *FeedbackController) DeleteFeedback(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := fc.feedback.DeleteFeedback(c.Request.Context(), auth.GetUserID(c), id); err != nil {
		respondError(c, err, "delete feedback")
		return
	}
	respondMessage(c, "Feedback has been deleted")
}
