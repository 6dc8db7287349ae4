// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - http.BookStore: book CRUD used by the web handlers (internal/http/stores.go)
//   - library.BookStore: upsert by filepath used by the scanner (internal/library/scanner.go)
//
// ## Background Task Interfaces
//
//   - http.TaskQueue: enqueue and status lookups from handlers (internal/http/stores.go)
//   - scheduler.Enqueuer: periodic library scans (internal/scheduler/library_scan.go)
//
// Both data access interfaces are satisfied by *books.Repository, and both task
// interfaces by *tasks.Client. Tests substitute in-memory fakes.
//
// # Adding a New Background Task
//
//  1. Define the task and its queue in internal/tasks/
//
//     type ExportNotesTask struct {
//         BookID string `json:"book_id"`
//     }
//
//     func (t ExportNotesTask) Config() backlite.QueueConfig {
//         return backlite.QueueConfig{Name: "export_notes", MaxAttempts: 3}
//     }
//
//     func NewExportNotesQueue(repo *books.Repository) backlite.Queue {
//         return backlite.NewQueue[ExportNotesTask](ExportNotesProcessor(repo))
//     }
//
//  2. Register the queue in entrypoint.go
//
//  3. Enqueue it from a handler through http.TaskQueue
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the checks in this module.
package interfaces
