package config

// Database drivers accepted by DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./library.db"

	// DefaultLibrarianPassword seeds the first librarian account when
	// LIBRARIAN_PASSWORD is unset
	DefaultLibrarianPassword = "librarian"

	// DefaultLibrarianAddress receives the monthly report when MAIL_LIBRARIAN_ADDRESS is unset
	DefaultLibrarianAddress = "librarian@iitm.in"
)

// Default cron schedules. Reminder and report run daily and monthly, not every minute.
const (
	DefaultExpirySweepSchedule   = "0 0 * * *"
	DefaultDailyReminderSchedule = "0 9 * * *"
	DefaultMonthlyReportSchedule = "0 8 1 * *"
	DefaultAuditCleanupSchedule  = "30 3 * * *"
)
