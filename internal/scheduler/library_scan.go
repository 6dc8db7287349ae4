// Package scheduler runs periodic library scans on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/alaya/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// DescribeSchedule returns a human-readable description of a cron schedule.
func DescribeSchedule(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 3 * * *":
		return "Daily at 03:00"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// Enqueuer accepts tasks for background processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// LibraryScanScheduler enqueues a scan of the library directory on a schedule.
type LibraryScanScheduler struct {
	queue    Enqueuer
	dir      string
	schedule string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewLibraryScanScheduler creates a scheduler for scans of dir.
func NewLibraryScanScheduler(queue Enqueuer, dir, schedule string) *LibraryScanScheduler {
	return &LibraryScanScheduler{
		queue:    queue,
		dir:      dir,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start registers the scan job and starts the cron loop. The scheduler stops
// on its own when ctx is cancelled.
func (s *LibraryScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunNow(context.Background()); err != nil {
			log.Printf("Library scan scheduler: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule scan job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("Library scan scheduler: started with schedule '%s' (%s) for %s",
		s.schedule, DescribeSchedule(s.schedule), s.dir)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the cron loop and waits for a running job to return.
func (s *LibraryScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false

	log.Printf("Library scan scheduler: stopped")
}

// RunNow enqueues a scan immediately and returns the task ID.
func (s *LibraryScanScheduler) RunNow(ctx context.Context) (string, error) {
	id, err := s.queue.Enqueue(ctx, tasks.ScanLibraryTask{Dir: s.dir})
	if err != nil {
		return "", fmt.Errorf("enqueue library scan: %w", err)
	}
	log.Printf("Library scan scheduler: enqueued scan of %s (task %s)", s.dir, id)
	return id, nil
}

// IsRunning returns whether the scheduler is active.
func (s *LibraryScanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next scan will be enqueued, or nil when stopped.
func (s *LibraryScanScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}
