package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/pranshh/library-management-mad2/internal/lending"
	"github.com/pranshh/library-management-mad2/internal/notify"
)

// BorrowerLister lists users holding granted loans. A zero userID means all.
type BorrowerLister interface {
	Borrowers(ctx context.Context, userID uint) ([]lending.Borrower, error)
}

// DailyRemindersTask fans out one SendReminderTask per current borrower.
type DailyRemindersTask struct{}

// Config returns the queue configuration for the reminder fan-out.
func (t DailyRemindersTask) Config() backlite.QueueConfig {
	return queueConfig("daily_reminders", 7*24*time.Hour)
}

// DailyRemindersProcessor creates a processor function for DailyRemindersTask.
func DailyRemindersProcessor(deps Deps, enq Enqueuer) backlite.QueueProcessor[DailyRemindersTask] {
	return func(ctx context.Context, _ DailyRemindersTask) error {
		if deps.Borrowers == nil {
			return fmt.Errorf("borrower lister not configured")
		}

		borrowers, err := deps.Borrowers.Borrowers(ctx, 0)
		if err != nil {
			return fmt.Errorf("list borrowers: %w", err)
		}
		if len(borrowers) == 0 {
			log.Printf("[TASK] No active loans, no reminders to send")
			return nil
		}

		reminders := make([]backlite.Task, 0, len(borrowers))
		for _, b := range borrowers {
			reminders = append(reminders, SendReminderTask{UserID: b.UserID})
		}
		if _, err := enq.Enqueue(ctx, reminders...); err != nil {
			return fmt.Errorf("enqueue reminders: %w", err)
		}

		deps.Auditor.LogJob("daily_reminders",
			fmt.Sprintf("Queued %d reminders", len(reminders)),
			map[string]any{"queued": len(reminders)}, nil)
		log.Printf("[TASK] Queued %d reminders", len(reminders))
		return nil
	}
}

// NewDailyRemindersQueue creates a backlite queue for the reminder fan-out.
func NewDailyRemindersQueue(deps Deps, enq Enqueuer) backlite.Queue {
	return backlite.NewQueue(DailyRemindersProcessor(deps, enq))
}

// SendReminderTask emails one user the loans they currently hold.
type SendReminderTask struct {
	UserID uint `json:"user_id"`
}

// Config returns the queue configuration for single reminders. Mail failures
// are retried with backoff.
func (t SendReminderTask) Config() backlite.QueueConfig {
	return queueConfig("send_reminder", 24*time.Hour)
}

// SendReminderProcessor creates a processor function for SendReminderTask.
// Loans are re-read at send time; a user who returned everything since the
// fan-out gets no mail.
func SendReminderProcessor(deps Deps) backlite.QueueProcessor[SendReminderTask] {
	return func(ctx context.Context, task SendReminderTask) error {
		if deps.Borrowers == nil || deps.Mailer == nil {
			return fmt.Errorf("reminder dependencies not configured")
		}
		if task.UserID == 0 {
			return fmt.Errorf("user_id is required")
		}

		borrowers, err := deps.Borrowers.Borrowers(ctx, task.UserID)
		if err != nil {
			return fmt.Errorf("load loans for user %d: %w", task.UserID, err)
		}
		if len(borrowers) == 0 {
			log.Printf("[TASK] User %d holds no loans, skipping reminder", task.UserID)
			return nil
		}

		msg, err := notify.ReminderMessage(borrowers[0], deps.now())
		if err != nil {
			return err
		}
		if err := deps.Mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("send reminder to user %d: %w", task.UserID, err)
		}

		log.Printf("[TASK] Reminder sent to %s", borrowers[0].Username)
		return nil
	}
}

// NewSendReminderQueue creates a backlite queue for single reminders.
func NewSendReminderQueue(deps Deps) backlite.Queue {
	return backlite.NewQueue(SendReminderProcessor(deps))
}
