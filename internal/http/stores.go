package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/entities"
)

// BookStore is the subset of the book repository the controllers use.
type BookStore interface {
	Create(input books.BookInput) (*entities.Book, error)
	Get(id string) (*entities.Book, error)
	FindByTitle(title string) ([]entities.Book, error)
	Update(id string, update books.BookUpdate) (*entities.Book, error)
	Delete(id string) error
	List(filter books.ListFilter) ([]entities.Book, error)
	Count() (int64, error)
}

// TaskQueue enqueues background tasks and reports on them.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
