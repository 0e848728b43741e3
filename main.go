package main

import (
	"fmt"
	"os"

	"github.com/pranshh/library-management-mad2/internal/cli"
	"github.com/pranshh/library-management-mad2/internal/config"
	"github.com/pranshh/library-management-mad2/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "run-task":
		cmd = cli.NewRunTaskCommand()
	case "expire-loans":
		cmd = cli.NewTaskAliasCommand(name, "expire_loans")
	case "send-reminders":
		cmd = cli.NewTaskAliasCommand(name, "daily_reminders")
	case "send-monthly-report":
		cmd = cli.NewTaskAliasCommand(name, "monthly_report")
	case "create-librarian":
		cmd = cli.NewCreateLibrarianCommand()
	case "version":
		fmt.Printf("%s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve                Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  expire-loans         Revoke granted loans past their due date\n")
	fmt.Fprintf(os.Stderr, "  send-reminders       Email every borrower the loans they hold\n")
	fmt.Fprintf(os.Stderr, "  send-monthly-report  Email the librarian a monthly lending report\n")
	fmt.Fprintf(os.Stderr, "  run-task             Run any background task once\n")
	fmt.Fprintf(os.Stderr, "  create-librarian     Create an additional librarian account\n")
	fmt.Fprintf(os.Stderr, "  version              Print the build version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
