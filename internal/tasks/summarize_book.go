package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/summary"
)

// SummarizeBookTask fills the notes of a book with a one-sentence summary.
// Model overrides the configured model when set.
type SummarizeBookTask struct {
	BookID string `json:"book_id"`
	Model  string `json:"model,omitempty"`
}

// Config returns the queue configuration for summary tasks.
func (t SummarizeBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "summarize_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SummarizeBookProcessor creates a processor function for SummarizeBookTask.
// Books that already have notes are left alone, and so is everything when no
// API key is configured; neither case is retried.
func SummarizeBookProcessor(client *summary.Client, repo *books.Repository) backlite.QueueProcessor[SummarizeBookTask] {
	return func(ctx context.Context, task SummarizeBookTask) error {
		if !client.HasAPIKey() {
			log.Printf("[TASK] Skipping summary of book %s: %v", task.BookID, summary.ErrMissingAPIKey)
			return nil
		}

		book, err := repo.Get(task.BookID)
		if errors.Is(err, database.ErrNotFound) {
			log.Printf("[TASK] Book %s no longer exists, nothing to summarize", task.BookID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load book %s: %w", task.BookID, err)
		}
		if book.HasNotes() {
			log.Printf("[TASK] Book %s (%s) already has notes", book.ID, book.Title)
			return nil
		}

		text, err := client.WithModel(task.Model).SummarizeBook(ctx, book.Title)
		if err != nil {
			return fmt.Errorf("summarize book %s: %w", book.ID, err)
		}
		if text == summary.UnavailableSummary {
			log.Printf("[TASK] No summary known for book %s (%s)", book.ID, book.Title)
			return nil
		}

		if _, err := repo.Update(book.ID, books.BookUpdate{Notes: books.Set(text)}); err != nil {
			return fmt.Errorf("save summary of book %s: %w", book.ID, err)
		}
		log.Printf("[TASK] Summarized book %s (%s)", book.ID, book.Title)
		return nil
	}
}

// NewSummarizeBookQueue creates a backlite queue for summary tasks.
func NewSummarizeBookQueue(client *summary.Client, repo *books.Repository) backlite.Queue {
	return backlite.NewQueue(SummarizeBookProcessor(client, repo))
}
