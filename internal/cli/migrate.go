package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/alaya/internal/config"
	"github.com/mrlokans/alaya/internal/database"
)

type MigrateCommand struct {
	DatabasePath string
	Action       string

	Out io.Writer
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{Out: os.Stdout}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.NewConfig().Database.Path, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options] [up|status|version]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Apply or inspect the database schema migrations.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s migrate\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s migrate -db ./alaya.db status\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Action = "up"
	if fs.NArg() > 0 {
		cmd.Action = fs.Arg(0)
	}
	switch cmd.Action {
	case "up", "status", "version":
	default:
		fs.Usage()
		return fmt.Errorf("unknown migrate action: %s", cmd.Action)
	}
	return nil
}

// Run opens the database, which applies pending migrations, and reports on
// the schema.
func (cmd *MigrateCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := db.Migrator()
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch cmd.Action {
	case "status":
		steps, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, step := range steps {
			state := "pending"
			if step.Applied {
				state = "applied"
			}
			fmt.Fprintf(cmd.Out, "%05d  %-8s %s\n", step.Version, state, step.Name)
		}
	default:
		version, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		if cmd.Action == "up" {
			fmt.Fprintf(cmd.Out, "Database %s is up to date (version %d)\n", cmd.DatabasePath, version)
		} else {
			fmt.Fprintln(cmd.Out, version)
		}
	}
	return nil
}
