// Package notify renders the reminder and report emails.
package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/pranshh/library-management-mad2/internal/database/stats"
	"github.com/pranshh/library-management-mad2/internal/lending"
	"github.com/pranshh/library-management-mad2/internal/mailer"
)

const (
	ReminderSubject      = "Daily Library Reminder"
	MonthlyReportSubject = "Monthly Library Report"
)

// dueSoonWindow marks loans due within this long of the reminder.
const dueSoonWindow = 48 * time.Hour

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"formatDate": func(t time.Time) string {
		return t.UTC().Format("02 Jan 2006 15:04 MST")
	},
	"dueSoon": func(due, now time.Time) bool {
		return due.Sub(now) <= dueSoonWindow
	},
}).ParseFS(templateFS, "templates/*.html"))

// ReminderMessage renders the daily reminder for one borrower.
func ReminderMessage(b lending.Borrower, now time.Time) (mailer.Message, error) {
	var buf bytes.Buffer
	data := struct {
		lending.Borrower
		Now time.Time
	}{b, now}
	if err := templates.ExecuteTemplate(&buf, "reminder.html", data); err != nil {
		return mailer.Message{}, fmt.Errorf("render reminder for user %d: %w", b.UserID, err)
	}
	return mailer.Message{
		To:      []string{b.Email},
		Subject: ReminderSubject,
		Body:    buf.String(),
		HTML:    true,
	}, nil
}

// MonthlyReportMessage renders the monthly report addressed to the librarian.
// The report body is also attached as an HTML file for archiving.
func MonthlyReportMessage(report *stats.MonthlyReport, to string) (mailer.Message, error) {
	month := report.Start.Format("January 2006")
	var buf bytes.Buffer
	data := struct {
		Month  string
		Report *stats.MonthlyReport
	}{month, report}
	if err := templates.ExecuteTemplate(&buf, "monthly_report.html", data); err != nil {
		return mailer.Message{}, fmt.Errorf("render monthly report: %w", err)
	}
	body := buf.String()
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("%s: %s", MonthlyReportSubject, month),
		Body:    body,
		HTML:    true,
		Attachments: []mailer.Attachment{{
			Name: fmt.Sprintf("report-%s.html", report.Start.Format("2006-01")),
			Data: []byte(body),
		}},
	}, nil
}

// PreviousMonth returns the UTC bounds [start, end) of the calendar month
// before the one containing now.
func PreviousMonth(now time.Time) (start, end time.Time) {
	now = now.UTC()
	end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start = end.AddDate(0, -1, 0)
	return start, end
}
