package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/alaya/internal/auth"
	"github.com/mrlokans/alaya/internal/config"
	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/database/users"
)

// CreateUserCommand adds an account directly, bypassing DISABLE_SIGNUPS.
type CreateUserCommand struct {
	DatabasePath string
	Username     string
	Password     string

	Auth config.Auth
	Out  io.Writer
}

func NewCreateUserCommand() *CreateUserCommand {
	cfg := config.NewConfig()
	return &CreateUserCommand{
		DatabasePath: cfg.Database.Path,
		Auth:         cfg.Auth,
		Out:          os.Stdout,
	}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file")
	fs.StringVar(&cmd.Username, "username", "", "Username of the new account (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password of the new account, at least 8 characters (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username NAME -password SECRET [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an account. Works even when signups are disabled.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("username and password are required")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	service := auth.NewService(users.NewRepository(db.DB), cmd.Auth)
	user, err := service.CreateUser(cmd.Username, cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to create user %q: %w", cmd.Username, err)
	}

	fmt.Fprintf(cmd.Out, "Created user %s (%s)\n", user.Username, user.ID)
	return nil
}
