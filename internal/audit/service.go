// Package audit records who did what to the catalog and to loans.
//
// Writes are asynchronous; callers never fail because the audit trail
// could not be written. A nil *Service is valid and records nothing.
package audit

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/pranshh/library-management-mad2/internal/database/audit"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event synchronously.
func (s *Service) Log(event *entities.AuditEvent) error {
	if s == nil {
		return nil
	}
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	if s == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event %s: %v", event.Action, err)
		}
	}()
}

// Wait blocks until all pending asynchronous writes have finished.
func (s *Service) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// LogLending records a loan request lifecycle event.
func (s *Service) LogLending(userID uint, action string, requestID uint, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLending,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  "request",
		Status:      entities.AuditStatusSuccess,
	}
	if requestID != 0 {
		event.EntityID = &requestID
	}
	markFailed(event, err)
	s.LogAsync(event)
}

// LogCatalog records a section or ebook change.
func (s *Service) LogCatalog(userID uint, action, entityType string, entityID uint, name string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventCatalog,
		Action:      entityType + "_" + action,
		Description: truncate(action+" "+entityType+": "+name, 500),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	}
	s.LogAsync(event)
}

// LogFeedback records a feedback submission or removal.
func (s *Service) LogFeedback(userID uint, action string, feedbackID, ebookID uint, rating int) {
	metadata := map[string]any{}
	if ebookID != 0 {
		metadata["ebook_id"] = ebookID
	}
	if rating != 0 {
		metadata["rating"] = rating
	}
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventFeedback,
		Action:     action,
		EntityType: "feedback",
		EntityID:   &feedbackID,
		Metadata:   encodeMetadata(metadata),
		Status:     entities.AuditStatusSuccess,
	}
	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action, ipAddr string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		Status:    entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// LogJob records the outcome of a scheduled or manually triggered job.
func (s *Service) LogJob(action, description string, metadata map[string]any, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventJob,
		Action:      action,
		Description: truncate(description, 500),
		Metadata:    encodeMetadata(metadata),
		Status:      entities.AuditStatusSuccess,
	}
	markFailed(event, err)
	s.LogAsync(event)
}

// ListEvents retrieves paginated audit events.
func (s *Service) ListEvents(filter audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(filter)
}

// History returns the audit trail of a single loan request.
func (s *Service) History(requestID uint) ([]entities.AuditEvent, error) {
	return s.repo.ListForEntity("request", requestID)
}

// DeleteOldEvents removes events older than the retention window.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func markFailed(event *entities.AuditEvent, err error) {
	if err == nil {
		return
	}
	event.Status = entities.AuditStatusFailed
	event.ErrorMsg = truncate(err.Error(), 500)
}

func encodeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
