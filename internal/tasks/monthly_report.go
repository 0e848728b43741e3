package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/pranshh/library-management-mad2/internal/database/stats"
	"github.com/pranshh/library-management-mad2/internal/notify"
)

// ReportSource computes lending totals for a period.
type ReportSource interface {
	MonthlyReport(start, end time.Time) (*stats.MonthlyReport, error)
}

// MonthlyReportTask mails the librarian a summary of one calendar month.
type MonthlyReportTask struct {
	// Month is "YYYY-MM"; empty means the month before the task runs.
	Month string `json:"month,omitempty"`
}

// Config returns the queue configuration for monthly reports.
func (t MonthlyReportTask) Config() backlite.QueueConfig {
	return queueConfig("monthly_report", 31*24*time.Hour)
}

// ReportPeriod returns the [start, end) bounds the task covers.
func (t MonthlyReportTask) ReportPeriod(now time.Time) (time.Time, time.Time, error) {
	if t.Month == "" {
		start, end := notify.PreviousMonth(now)
		return start, end, nil
	}
	start, err := time.ParseInLocation("2006-01", t.Month, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", t.Month)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// MonthlyReportProcessor creates a processor function for MonthlyReportTask.
func MonthlyReportProcessor(deps Deps) backlite.QueueProcessor[MonthlyReportTask] {
	return func(ctx context.Context, task MonthlyReportTask) error {
		if deps.Reports == nil || deps.Mailer == nil {
			return fmt.Errorf("report dependencies not configured")
		}
		if deps.LibrarianAddress == "" {
			return fmt.Errorf("librarian address not configured")
		}

		start, end, err := task.ReportPeriod(deps.now())
		if err != nil {
			return err
		}

		report, err := deps.Reports.MonthlyReport(start, end)
		if err != nil {
			return fmt.Errorf("compute monthly report: %w", err)
		}

		msg, err := notify.MonthlyReportMessage(report, deps.LibrarianAddress)
		if err != nil {
			return err
		}
		err = deps.Mailer.Send(ctx, msg)
		deps.Auditor.LogJob("monthly_report",
			fmt.Sprintf("Monthly report for %s", start.Format("2006-01")),
			map[string]any{
				"total_requests": report.TotalRequests,
				"total_returns":  report.TotalReturns,
			}, err)
		if err != nil {
			return fmt.Errorf("send monthly report: %w", err)
		}

		log.Printf("[TASK] Monthly report for %s sent to %s", start.Format("2006-01"), deps.LibrarianAddress)
		return nil
	}
}

// NewMonthlyReportQueue creates a backlite queue for monthly reports.
func NewMonthlyReportQueue(deps Deps) backlite.Queue {
	return backlite.NewQueue(MonthlyReportProcessor(deps))
}
