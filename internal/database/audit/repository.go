// Package audit persists the lending and catalog audit trail.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/pranshh/library-management-mad2/internal/entities"
)

const defaultPageSize = 50

// Filter narrows an audit listing. Zero values match everything.
type Filter struct {
	EventType entities.AuditEventType
	UserID    uint
	Limit     int
	Offset    int
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent stores an audit event, stamping it with the current UTC time
// when the caller did not.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return r.db.Create(event).Error
}

// ListEvents returns one page of events, newest first, and the total count
// matching the filter.
func (r *Repository) ListEvents(f Filter) ([]entities.AuditEvent, int64, error) {
	query := r.db.Model(&entities.AuditEvent{})
	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}
	if f.UserID > 0 {
		query = query.Where("user_id = ?", f.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := max(f.Offset, 0)

	var events []entities.AuditEvent
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// ListForEntity returns every event recorded against one entity, oldest first.
func (r *Repository) ListForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	var events []entities.AuditEvent
	err := r.db.
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

// DeleteOldEvents removes events created before olderThan and reports how
// many rows were removed.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
