package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pranshh/library-management-mad2/internal/config"
	"github.com/pranshh/library-management-mad2/internal/entrypoint"
	"github.com/pranshh/library-management-mad2/internal/tasks"
)

// RunTaskCommand runs one background task in the foreground, bypassing the
// queue. It is meant for cron on hosts that do not run the server.
type RunTaskCommand struct {
	Name         string
	TaskType     string
	Month        string
	DatabasePath string
	NoMail       bool

	fixedType bool
}

// NewRunTaskCommand creates the generic "run-task" command.
func NewRunTaskCommand() *RunTaskCommand {
	return &RunTaskCommand{Name: "run-task"}
}

// NewTaskAliasCommand creates a command bound to one task type, such as
// "expire-loans".
func NewTaskAliasCommand(name, taskType string) *RunTaskCommand {
	return &RunTaskCommand{Name: name, TaskType: taskType, fixedType: true}
}

func (cmd *RunTaskCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet(cmd.Name, flag.ExitOnError)

	if !cmd.fixedType {
		fs.StringVar(&cmd.TaskType, "type", "", "Task to run (required)")
	}
	if !cmd.fixedType || cmd.TaskType == "monthly_report" {
		fs.StringVar(&cmd.Month, "month", "", "Report month as YYYY-MM (monthly_report only, default: previous month)")
	}
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the SQLite database (default: DATABASE_PATH)")
	fs.BoolVar(&cmd.NoMail, "no-mail", false, "Log outgoing mail instead of sending it")

	fs.Usage = func() {
		if cmd.fixedType {
			fmt.Fprintf(os.Stderr, "Usage: %s %s [options]\n\n", os.Args[0], cmd.Name)
		} else {
			fmt.Fprintf(os.Stderr, "Usage: %s %s -type <task> [options]\n\n", os.Args[0], cmd.Name)
			fmt.Fprintf(os.Stderr, "Tasks:\n")
			for _, info := range tasks.Types() {
				fmt.Fprintf(os.Stderr, "  %-22s %s\n", info.Type, info.Description)
			}
			fmt.Fprintln(os.Stderr)
		}
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.TaskType == "" {
		return fmt.Errorf("required flag -type not provided")
	}
	if _, err := tasks.NewTask(cmd.TaskType, cmd.Month); err != nil {
		return err
	}
	return nil
}

func (cmd *RunTaskCommand) Run() error {
	task, err := tasks.NewTask(cmd.TaskType, cmd.Month)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd.DatabasePath)
	if err != nil {
		return err
	}
	if cmd.NoMail {
		cfg.Mail.Enabled = false
	}

	app, err := entrypoint.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Running %s against %s\n", cmd.TaskType, cfg.Database.Path)
	if err := tasks.NewRunner(app.TaskDeps()).Run(context.Background(), task); err != nil {
		return fmt.Errorf("%s failed: %w", cmd.TaskType, err)
	}
	fmt.Println("Done")
	return nil
}

// loadConfig reads the environment and applies a -db override.
func loadConfig(dbPath string) (*config.Config, error) {
	cfg := config.NewConfig()
	if dbPath != "" {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
		}
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = abs
	}
	return cfg, nil
}
