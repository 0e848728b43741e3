package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	dbaudit "github.com/pranshh/library-management-mad2/internal/database/audit"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

// LibrarianController serves the librarian dashboard and the audit log.
type LibrarianController struct {
	stats StatsStore
	audit AuditReader
}

// NewLibrarianController creates a new LibrarianController. audit may be nil.
func NewLibrarianController(stats StatsStore, audit AuditReader) *LibrarianController {
	return &LibrarianController{stats: stats, audit: audit}
}

// Dashboard handles GET /api/librarian/dashboard
func (lc *LibrarianController) Dashboard(c *gin.Context) {
	dashboard, err := lc.stats.Dashboard()
	if err != nil {
		respondError(c, err, "dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/librarian/audit
// Optional query: type, user_id, page, limit. request_id returns the full
// history of one loan request instead.
func (lc *LibrarianController) GetAuditEvents(c *gin.Context) {
	if lc.audit == nil {
		c.JSON(http.StatusOK, PaginatedResponse{Data: []entities.AuditEvent{}, Page: 1, Limit: 25, TotalPages: 1})
		return
	}

	if raw := c.Query("request_id"); raw != "" {
		requestID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid request_id")
			return
		}
		events, err := lc.audit.History(uint(requestID))
		if err != nil {
			respondError(c, err, "request history")
			return
		}
		c.JSON(http.StatusOK, gin.H{"request_id": requestID, "events": events})
		return
	}

	userID, ok := parseOptionalQueryID(c, "user_id")
	if !ok {
		return
	}
	page, limit := parsePagination(c, 25)

	events, total, err := lc.audit.ListEvents(dbaudit.Filter{
		EventType: entities.AuditEventType(c.Query("type")),
		UserID:    userID,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		respondError(c, err, "list audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	})
}
