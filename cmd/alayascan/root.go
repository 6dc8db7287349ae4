package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrlokans/alaya/internal/config"
	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/library"
	"github.com/mrlokans/alaya/internal/summary"
)

type options struct {
	scanDir string
	save    bool
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   `alayascan ["Book Title" | --scan-dir DIR [--save]]`,
		Short: "Summarize a book or scan a directory for book files",
		Long: "alayascan asks the OpenAI API for a one-sentence summary of a book, or walks a\n" +
			"directory for book files (" + strings.Join(library.Extensions, ", ") + ") and prints their metadata.\n" +
			"With --save the results are written to DATABASE_PATH.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.scanDir != "" {
				return scanDirectory(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
			}
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				_ = cmd.Usage()
				return errors.New("a book title or --scan-dir is required")
			}
			return summarizeTitle(cmd.Context(), cmd.OutOrStdout(), cfg, title, opts.save)
		},
	}

	cmd.Flags().StringVarP(&opts.scanDir, "scan-dir", "d", "", "Scan directory for book files")
	cmd.Flags().BoolVarP(&opts.save, "save", "s", false, "Save results to the database at DATABASE_PATH")

	return cmd
}

// summarizeTitle prints a summary of title. A missing API key or a failed
// request is logged and is not an error. With save, the summary lands in the
// notes of the book with that exact title, creating it when absent.
func summarizeTitle(ctx context.Context, out io.Writer, cfg *config.Config, title string, save bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Fprintf(out, "Scanning %q...\n", title)

	client := summary.NewClient(cfg.Summary)
	if !client.HasAPIKey() {
		log.Printf("OPENAI_API_KEY is not set, skipping summary of %q", title)
		return nil
	}

	text, err := client.SummarizeBook(ctx, title)
	if err != nil {
		log.Printf("Failed to summarize %q: %v", title, err)
		return nil
	}
	fmt.Fprintf(out, "\nSummary: %s\n", text)

	if !save || text == summary.UnavailableSummary {
		return nil
	}
	return saveSummary(out, cfg.Database.Path, title, text)
}

func saveSummary(out io.Writer, dbPath, title, text string) error {
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := books.NewRepository(db.DB)

	existing, err := repo.FindByTitle(title)
	if err != nil {
		return fmt.Errorf("find %q: %w", title, err)
	}

	if len(existing) == 0 {
		book, err := repo.Create(books.BookInput{Title: title, Notes: &text})
		if err != nil {
			return fmt.Errorf("save %q: %w", title, err)
		}
		fmt.Fprintf(out, "Saved new book %s\n", book.ID)
		return nil
	}

	book := existing[0]
	if book.HasNotes() {
		fmt.Fprintf(out, "Book %s already has notes, leaving them alone\n", book.ID)
		return nil
	}
	if _, err := repo.Update(book.ID, books.BookUpdate{Notes: books.Set(text)}); err != nil {
		return fmt.Errorf("save notes of %s: %w", book.ID, err)
	}
	fmt.Fprintf(out, "Saved summary to book %s\n", book.ID)
	return nil
}

// scanDirectory prints every book file under opts.scanDir with its metadata
// and, with opts.save, upserts them by relative filepath.
func scanDirectory(ctx context.Context, out io.Writer, cfg *config.Config, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	scanner := library.NewScanner()
	files, err := scanner.Scan(ctx, opts.scanDir)
	if err != nil {
		return fmt.Errorf("scanning directory: %w", err)
	}

	var store library.BookStore
	if opts.save {
		db, err := database.NewDatabase(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		store = books.NewRepository(db.DB)
	}

	fmt.Fprintf(out, "Scanning directory: %s\n", opts.scanDir)
	if opts.save {
		fmt.Fprintln(out, "Saving books to database...")
		fmt.Fprintln(out, "(storing paths relative to the scanned directory)")
	}
	fmt.Fprintln(out)

	saved := 0
	for _, f := range files {
		fmt.Fprintln(out, f.Path)
		printMetadata(out, f.Metadata)

		if store != nil {
			outcome, _, err := scanner.SaveFile(store, f)
			switch outcome {
			case library.OutcomeSaved:
				fmt.Fprintln(out, "  [SAVED]")
				saved++
			case library.OutcomeSkipped:
				fmt.Fprintln(out, "  [SKIPPED: no title]")
			case library.OutcomeFailed:
				fmt.Fprintf(out, "  [ERROR saving: %v]\n", err)
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Found %d book file(s)\n", len(files))
	if opts.save {
		fmt.Fprintf(out, "Saved %d book(s) to database\n", saved)
	}
	return nil
}

const maxDescription = 200

func printMetadata(out io.Writer, md library.Metadata) {
	fields := []struct{ label, value string }{
		{"Title", md.Title},
		{"Author", md.Author},
		{"Publisher", md.Publisher},
		{"Date", md.Date},
		{"ISBN", md.ISBN},
		{"Language", md.Language},
		{"Description", truncate(md.Description, maxDescription)},
		{"Subject", md.Subject},
		{"Creator", md.Creator},
		{"Producer", md.Producer},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(out, "  %s: %s\n", f.label, f.value)
		}
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
