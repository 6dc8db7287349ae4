package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "migrations.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestMigrator(t *testing.T, db *sql.DB) *Migrator {
	t.Helper()
	m, err := New(db)
	require.NoError(t, err)
	return m
}

type columnInfo struct {
	Name    string
	NotNull bool
}

func tableColumns(t *testing.T, db *sql.DB, table string) []columnInfo {
	t.Helper()
	rows, err := db.Query("SELECT name, \"notnull\" FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	var cols []columnInfo
	for rows.Next() {
		var c columnInfo
		require.NoError(t, rows.Scan(&c.Name, &c.NotNull))
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())
	return cols
}

func columnNames(cols []columnInfo) []string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}

func uniqueIndexes(t *testing.T, db *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := db.Query("SELECT name, \"unique\" FROM pragma_index_list(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	indexes := map[string]bool{}
	for rows.Next() {
		var name string
		var unique bool
		require.NoError(t, rows.Scan(&name, &unique))
		indexes[name] = unique
	}
	require.NoError(t, rows.Err())
	return indexes
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestMigrator_UpFromEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestMigrator(t, db)

	require.NoError(t, m.Up(ctx))

	cols := tableColumns(t, db, "books")
	assert.Equal(t,
		[]string{"id", "title", "author", "publication_year", "notes", "created_at", "updated_at", "filepath"},
		columnNames(cols),
	)

	required := map[string]bool{}
	for _, c := range cols {
		if c.NotNull {
			required[c.Name] = true
		}
	}
	assert.Equal(t, map[string]bool{"id": true, "title": true, "created_at": true, "updated_at": true}, required)

	indexes := uniqueIndexes(t, db, "books")
	assert.True(t, indexes["idx_books_filepath"], "filepath index must be unique")
	assert.Contains(t, indexes, "idx_books_title")
	assert.Contains(t, indexes, "idx_books_author")
	assert.Contains(t, indexes, "idx_books_publication_year")
	assert.NotContains(t, indexes, "idx_books_user_id")

	assert.True(t, tableExists(t, db, "users"))
	assert.True(t, tableExists(t, db, "sessions"))
	assert.False(t, tableExists(t, db, "books_new"))
}

func TestMigrator_VersionRecord(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestMigrator(t, db)

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	latest, err := m.Latest()
	require.NoError(t, err)
	assert.Equal(t, int64(9), latest)

	require.NoError(t, m.Up(ctx))

	version, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, latest, version)

	t.Run("re-running is a no-op", func(t *testing.T) {
		require.NoError(t, m.Up(ctx))

		version, err := m.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, latest, version)
	})
}

func TestMigrator_Status(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestMigrator(t, db)

	require.NoError(t, m.UpTo(ctx, 3))

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 9)

	for i, s := range statuses {
		assert.Equal(t, int64(i+1), s.Version)
		assert.Equal(t, s.Version <= 3, s.Applied, "version %d", s.Version)
	}
	assert.Contains(t, statuses[0].Name, "create_users")
}

func TestMigrator_PreservesLegacyRows(t *testing.T) {
	created := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	updated := time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		version  int64
		insert   string
		filepath string // expected after migrating; empty means NULL
	}{
		{
			name:    "v3 user scoped with required author",
			version: 3,
			insert: `INSERT INTO books (id, user_id, title, author, publication_year, notes, created_at, updated_at)
				VALUES ('book-1', 'user-1', 'Invisible Cities', 'Italo Calvino', 1972, 'Marco Polo and Kublai Khan', ?, ?)`,
		},
		{
			name:    "v4 with isbn",
			version: 4,
			insert: `INSERT INTO books (id, user_id, title, author, isbn, publication_year, notes, created_at, updated_at)
				VALUES ('book-1', 'user-1', 'Invisible Cities', 'Italo Calvino', '9780156453806', 1972, 'Marco Polo and Kublai Khan', ?, ?)`,
		},
		{
			name:    "v5 relaxed author",
			version: 5,
			insert: `INSERT INTO books (id, user_id, title, author, isbn, publication_year, notes, created_at, updated_at)
				VALUES ('book-1', 'user-1', 'Invisible Cities', 'Italo Calvino', '9780156453806', 1972, 'Marco Polo and Kublai Khan', ?, ?)`,
		},
		{
			name:    "v6 global books",
			version: 6,
			insert: `INSERT INTO books (id, title, author, isbn, publication_year, notes, created_at, updated_at)
				VALUES ('book-1', 'Invisible Cities', 'Italo Calvino', '9780156453806', 1972, 'Marco Polo and Kublai Khan', ?, ?)`,
		},
		{
			name:    "v7 without isbn",
			version: 7,
			insert: `INSERT INTO books (id, title, author, publication_year, notes, created_at, updated_at)
				VALUES ('book-1', 'Invisible Cities', 'Italo Calvino', 1972, 'Marco Polo and Kublai Khan', ?, ?)`,
		},
		{
			name:    "v8 with filepath",
			version: 8,
			insert: `INSERT INTO books (id, title, author, publication_year, notes, filepath, created_at, updated_at)
				VALUES ('book-1', 'Invisible Cities', 'Italo Calvino', 1972, 'Marco Polo and Kublai Khan', 'calvino/invisible-cities.epub', ?, ?)`,
			filepath: "calvino/invisible-cities.epub",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := openTestDB(t)
			m := newTestMigrator(t, db)

			require.NoError(t, m.UpTo(ctx, tt.version))

			_, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at, updated_at)
				VALUES ('user-1', 'reader', 'hash', ?, ?)`, created, created)
			require.NoError(t, err)
			_, err = db.Exec(tt.insert, created, updated)
			require.NoError(t, err)

			require.NoError(t, m.Up(ctx))

			names := columnNames(tableColumns(t, db, "books"))
			assert.NotContains(t, names, "isbn")
			assert.NotContains(t, names, "user_id")

			var (
				title, author, notes string
				year                 int
				path                 sql.NullString
				createdAt, updatedAt time.Time
			)
			err = db.QueryRow(`SELECT title, author, publication_year, notes, filepath, created_at, updated_at
				FROM books WHERE id = 'book-1'`).
				Scan(&title, &author, &year, &notes, &path, &createdAt, &updatedAt)
			require.NoError(t, err)

			assert.Equal(t, "Invisible Cities", title)
			assert.Equal(t, "Italo Calvino", author)
			assert.Equal(t, 1972, year)
			assert.Equal(t, "Marco Polo and Kublai Khan", notes)
			if tt.filepath == "" {
				assert.False(t, path.Valid, "columns added later start out NULL")
			} else {
				assert.Equal(t, tt.filepath, path.String)
			}
			assert.True(t, created.Equal(createdAt), "created_at: %v", createdAt)
			assert.True(t, updated.Equal(updatedAt), "updated_at: %v", updatedAt)
		})
	}
}

func TestMigrator_RelaxedAuthorAcceptsNull(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestMigrator(t, db)

	require.NoError(t, m.UpTo(ctx, 3))
	_, err := db.Exec(`INSERT INTO books (id, user_id, title, author, created_at, updated_at)
		VALUES ('b', 'u', 't', NULL, '2024-01-01', '2024-01-01')`)
	require.Error(t, err, "author is required before the relax step")

	require.NoError(t, m.Up(ctx))
	_, err = db.Exec(`INSERT INTO books (id, title, author, created_at, updated_at)
		VALUES ('b', 't', NULL, '2024-01-01', '2024-01-01')`)
	assert.NoError(t, err)
}

func TestMigrator_FailedStepIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := newTestMigrator(t, db)

	require.NoError(t, m.UpTo(ctx, 4))
	_, err := db.Exec(`INSERT INTO books (id, user_id, title, author, isbn, created_at, updated_at)
		VALUES ('book-1', 'user-1', 'Dune', 'Frank Herbert', '0441013597', '2020-01-01', '2020-01-01')`)
	require.NoError(t, err)

	// A leftover shadow table makes step 5 fail.
	_, err = db.Exec(`CREATE TABLE books_new (id TEXT)`)
	require.NoError(t, err)

	err = m.Up(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigrationFailure)

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	assert.Contains(t, columnNames(tableColumns(t, db, "books")), "isbn")

	var title string
	require.NoError(t, db.QueryRow(`SELECT title FROM books WHERE id = 'book-1'`).Scan(&title))
	assert.Equal(t, "Dune", title)
}
