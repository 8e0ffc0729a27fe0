package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/server/bookmarks"
	"github.com/minkvault/mink/internal/server/migrations"
	"github.com/minkvault/mink/internal/server/notes"
	"github.com/minkvault/mink/internal/server/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Folders(db dbx.DBTX) bookmarks.FolderRepository {
	return bookmarks.NewPostgresFolderRepository(db)
}

func (m *PostgresRepositoryManager) Bookmarks(db dbx.DBTX) bookmarks.BookmarkRepository {
	return bookmarks.NewPostgresBookmarkRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
