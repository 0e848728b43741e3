package http

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pranshh/library-management-mad2/internal/auth"
	"github.com/pranshh/library-management-mad2/internal/entities"
	"github.com/pranshh/library-management-mad2/internal/lending"
)

// RequestsController handles loan requests, returns and the expiry sweep.
type RequestsController struct {
	loans LoanService
	now   func() time.Time
}

// NewRequestsController creates a new RequestsController.
func NewRequestsController(loans LoanService) *RequestsController {
	return &RequestsController{
		loans: loans,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequestBody is the payload for POST /api/request.
type CreateRequestBody struct {
	EbookID uint `json:"ebook_id" binding:"required"`
}

// UpdateRequestBody is the payload for PUT /api/request/:id.
type UpdateRequestBody struct {
	Status string `json:"status" binding:"required"`
}

// ListRequests handles GET /api/request
// Librarians see every request; other users see their own.
func (rc *RequestsController) ListRequests(c *gin.Context) {
	views, err := rc.loans.ListRequests(c.Request.Context(), auth.GetUserID(c), auth.IsLibrarian(c))
	if err != nil {
		respondError(c, err, "list requests")
		return
	}
	if views == nil {
		views = []lending.RequestView{}
	}
	c.JSON(http.StatusOK, views)
}

// CreateRequest handles POST /api/request
func (rc *RequestsController) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindingError(c, err)
		return
	}

	req, err := rc.loans.CreateRequest(c.Request.Context(), auth.GetUserID(c), body.EbookID)
	if err != nil {
		respondError(c, err, "create request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Request submitted successfully",
		"request_id": req.ID,
	})
}

// UpdateRequest handles PUT /api/request/:id
// Librarian only: grants or revokes a request.
func (rc *RequestsController) UpdateRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body UpdateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindingError(c, err)
		return
	}

	status := entities.RequestStatus(body.Status)
	req, err := rc.loans.UpdateRequestStatus(c.Request.Context(), auth.GetUserID(c), id, status)
	if err != nil {
		respondError(c, err, "update request")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     fmt.Sprintf("Request status updated to %s", req.Status),
		"request_id":  req.ID,
		"status":      req.Status,
		"return_date": req.ReturnDate,
	})
}

// ReturnRequest handles POST /api/return/:id
// Only the borrower may return a granted loan.
func (rc *RequestsController) ReturnRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := rc.loans.ReturnRequest(c.Request.Context(), auth.GetUserID(c), id); err != nil {
		respondError(c, err, "return request")
		return
	}

	respondMessage(c, "E-book returned successfully")
}

// AutoReturn handles POST /api/auto-return
// Runs the expiry sweep now and lists the loans it revoked.
func (rc *RequestsController) AutoReturn(c *gin.Context) {
	expired, err := rc.loans.AutoExpireSweep(c.Request.Context(), rc.now())
	if err != nil && expired == nil {
		respondError(c, err, "auto return")
		return
	}
	if err != nil {
		// Individual loans that failed stay granted for the next sweep.
		log.Printf("Auto return finished with errors: %v", err)
	}
	if expired == nil {
		expired = []lending.ExpiredLoan{}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("%d overdue books returned automatically", len(expired)),
		"returned_books": expired,
	})
}
