package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/http"
	"github.com/mrlokans/alaya/internal/library"
	"github.com/mrlokans/alaya/internal/scheduler"
	"github.com/mrlokans/alaya/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// BookStore implementations
var _ http.BookStore = (*books.Repository)(nil)
var _ library.BookStore = (*books.Repository)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

// TaskQueue implementations
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
