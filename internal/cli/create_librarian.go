package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pranshh/library-management-mad2/internal/entrypoint"
)

// CreateLibrarianCommand adds a librarian account.
type CreateLibrarianCommand struct {
	Email        string
	Username     string
	Password     string
	DatabasePath string
}

func NewCreateLibrarianCommand() *CreateLibrarianCommand {
	return &CreateLibrarianCommand{}
}

func (cmd *CreateLibrarianCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-librarian", flag.ExitOnError)

	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password (default: LIBRARIAN_PASSWORD from the environment)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the SQLite database (default: DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-librarian -email <email> -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an additional librarian account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}
	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	return nil
}

func (cmd *CreateLibrarianCommand) Run() error {
	cfg, err := loadConfig(cmd.DatabasePath)
	if err != nil {
		return err
	}
	password := cmd.Password
	if password == "" {
		password = cfg.Librarian.Password
	}

	app, err := entrypoint.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	user, err := app.Accounts.CreateLibrarian(context.Background(), cmd.Email, cmd.Username, password)
	if err != nil {
		return fmt.Errorf("failed to create librarian: %w", err)
	}
	fmt.Printf("Created librarian %s (id %d)\n", user.Email, user.ID)
	return nil
}
