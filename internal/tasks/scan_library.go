package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/library"
)

// ScanLibraryTask scans a directory and upserts every book file in it.
type ScanLibraryTask struct {
	Dir string `json:"dir"`
}

// Config returns the queue configuration for library scans.
func (t ScanLibraryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "scan_library",
		MaxAttempts: 1,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ScanLibraryProcessor creates a processor function for ScanLibraryTask.
func ScanLibraryProcessor(scanner *library.Scanner, repo *books.Repository) backlite.QueueProcessor[ScanLibraryTask] {
	return func(ctx context.Context, task ScanLibraryTask) error {
		files, err := scanner.Scan(ctx, task.Dir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", task.Dir, err)
		}

		result := scanner.Save(ctx, repo, files)
		log.Printf("[TASK] Scanned %s: found %d, saved %d (%d new), skipped %d, errors %d",
			task.Dir, result.Found, result.Saved, result.Created, result.Skipped, result.Errors)
		return ctx.Err()
	}
}

// NewScanLibraryQueue creates a backlite queue for library scans.
func NewScanLibraryQueue(scanner *library.Scanner, repo *books.Repository) backlite.Queue {
	return backlite.NewQueue(ScanLibraryProcessor(scanner, repo))
}
