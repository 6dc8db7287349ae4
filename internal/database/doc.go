// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and schema migration on open
//	├── errors.go        # ErrNotFound, ErrConstraintViolation
//	├── migrations/      # Embedded goose SQL migrations (goose_db_version)
//	├── books/           # Book record store
//	└── users/           # Account store
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./alaya.db")
//	if errors.Is(err, migrations.ErrMigrationFailure) {
//		// refuse to start
//	}
//
//	booksRepo := books.NewRepository(db.DB)
//	book, err := booksRepo.Get(id)
//
// The schema is owned by the migrations package. Repositories never call
// AutoMigrate; adding a column means adding a new numbered SQL file.
package database
