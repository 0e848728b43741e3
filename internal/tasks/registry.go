package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	"github.com/pranshh/library-management-mad2/internal/audit"
	"github.com/pranshh/library-management-mad2/internal/mailer"
)

// Deps are the collaborators task processors use. Auditor may be nil.
type Deps struct {
	Loans              LoanExpirer
	Borrowers          BorrowerLister
	Reports            ReportSource
	AuditCleaner       AuditEventCleaner
	Mailer             mailer.Sender
	Auditor            *audit.Service
	LibrarianAddress   string
	AuditRetentionDays int

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// Enqueuer accepts tasks for execution and returns their IDs.
type Enqueuer interface {
	Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error)
}

// Queue is an Enqueuer whose tasks can be looked up afterwards.
type Queue interface {
	Enqueuer
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TypeInfo describes a task that can be triggered on demand.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Types lists the tasks exposed for manual runs.
func Types() []TypeInfo {
	return []TypeInfo{
		{Type: "expire_loans", Description: "Revoke granted loans past their due date"},
		{Type: "daily_reminders", Description: "Email every borrower the loans they hold"},
		{Type: "monthly_report", Description: "Email the librarian last month's lending report"},
		{Type: "cleanup_audit_events", Description: "Delete audit events past the retention period"},
	}
}

// ErrUnknownTaskType is returned by NewTask for unsupported names.
var ErrUnknownTaskType = errors.New("unknown task type")

// NewTask builds the task for a type name. month applies to monthly_report only.
func NewTask(taskType, month string) (backlite.Task, error) {
	switch taskType {
	case "expire_loans":
		return ExpireLoansTask{}, nil
	case "daily_reminders":
		return DailyRemindersTask{}, nil
	case "monthly_report":
		task := MonthlyReportTask{Month: month}
		if _, _, err := task.ReportPeriod(time.Now()); err != nil {
			return nil, err
		}
		return task, nil
	case "cleanup_audit_events":
		return CleanupAuditEventsTask{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}
}

// RegisterQueues registers every queue on the client. Reminder fan-out goes
// back through the same client.
func RegisterQueues(c *Client, deps Deps) {
	c.Register(
		NewExpireLoansQueue(deps),
		NewDailyRemindersQueue(deps, c),
		NewSendReminderQueue(deps),
		NewMonthlyReportQueue(deps),
		NewCleanupAuditEventsQueue(deps),
	)
}

// Runner executes tasks synchronously in the calling goroutine. It backs the
// CLI commands and deployments that run without the persistent queue.
type Runner struct {
	deps Deps

	mu      sync.Mutex
	results map[string]backlite.TaskStatus
	order   []string
}

// maxRunnerResults bounds how many outcomes a Runner remembers; the oldest
// are forgotten first.
const maxRunnerResults = 1000

// NewRunner creates an inline runner.
func NewRunner(deps Deps) *Runner {
	return &Runner{deps: deps, results: make(map[string]backlite.TaskStatus)}
}

// Enqueue runs each task immediately. Every task runs even if an earlier one
// fails; the failures are joined.
func (r *Runner) Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error) {
	ids := make([]string, 0, len(tasks))
	var errs []error
	for _, task := range tasks {
		id := uuid.NewString()
		status := backlite.TaskStatusSuccess
		if err := r.Run(ctx, task); err != nil {
			status = backlite.TaskStatusFailure
			errs = append(errs, err)
		}
		r.record(id, status)
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

func (r *Runner) record(id string, status backlite.TaskStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[id] = status
	r.order = append(r.order, id)
	if len(r.order) > maxRunnerResults {
		delete(r.results, r.order[0])
		r.order = r.order[1:]
	}
}

// Status reports the outcome of a task this runner executed.
func (r *Runner) Status(_ context.Context, taskID string) (backlite.TaskStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.results[taskID]
	if !ok {
		return backlite.TaskStatusNotFound, nil
	}
	return status, nil
}

// Run executes a single task.
func (r *Runner) Run(ctx context.Context, task backlite.Task) error {
	switch t := task.(type) {
	case ExpireLoansTask:
		return ExpireLoansProcessor(r.deps)(ctx, t)
	case DailyRemindersTask:
		return DailyRemindersProcessor(r.deps, r)(ctx, t)
	case SendReminderTask:
		return SendReminderProcessor(r.deps)(ctx, t)
	case MonthlyReportTask:
		return MonthlyReportProcessor(r.deps)(ctx, t)
	case CleanupAuditEventsTask:
		return CleanupAuditEventsProcessor(r.deps)(ctx, t)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownTaskType, task)
	}
}
