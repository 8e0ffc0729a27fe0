package repomanager

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/server/bookmarks"
	"github.com/minkvault/mink/internal/server/migrations"
	"github.com/minkvault/mink/internal/server/notes"
	"github.com/minkvault/mink/internal/server/users"
)

// SQLiteRepositoryManager vends SQLite-backed repository implementations.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Folders(db dbx.DBTX) bookmarks.FolderRepository {
	return bookmarks.NewSQLiteFolderRepository(db)
}

func (m *SQLiteRepositoryManager) Bookmarks(db dbx.DBTX) bookmarks.BookmarkRepository {
	return bookmarks.NewSQLiteBookmarkRepository(db)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
