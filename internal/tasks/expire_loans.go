package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/pranshh/library-management-mad2/internal/lending"
)

// LoanExpirer revokes granted loans whose due date has passed.
type LoanExpirer interface {
	AutoExpireSweep(ctx context.Context, now time.Time) ([]lending.ExpiredLoan, error)
}

// ExpireLoansTask runs the overdue-loan sweep once.
type ExpireLoansTask struct{}

// Config returns the queue configuration for expiry sweeps.
func (t ExpireLoansTask) Config() backlite.QueueConfig {
	return queueConfig("expire_loans", 7*24*time.Hour)
}

// ExpireLoansProcessor creates a processor function for ExpireLoansTask.
// The sweep is idempotent, so a retry after a partial failure only touches
// the loans that are still overdue.
func ExpireLoansProcessor(deps Deps) backlite.QueueProcessor[ExpireLoansTask] {
	return func(ctx context.Context, _ ExpireLoansTask) error {
		if deps.Loans == nil {
			return fmt.Errorf("loan expirer not configured")
		}

		expired, err := deps.Loans.AutoExpireSweep(ctx, deps.now())
		deps.Auditor.LogJob("expire_loans",
			fmt.Sprintf("Revoked %d overdue loans", len(expired)),
			map[string]any{"revoked": len(expired)}, err)
		if err != nil {
			return fmt.Errorf("expire loans: %w", err)
		}

		log.Printf("[TASK] Revoked %d overdue loans", len(expired))
		return nil
	}
}

// NewExpireLoansQueue creates a backlite queue for expiry sweeps.
func NewExpireLoansQueue(deps Deps) backlite.Queue {
	return backlite.NewQueue(ExpireLoansProcessor(deps))
}
