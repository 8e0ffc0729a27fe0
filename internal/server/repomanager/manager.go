// Package repomanager vends dialect-specific repository implementations and
// the schema migration hook (via goose). The dialect is chosen from the
// database DSN: postgres:// DSNs get pgx, everything else is treated as a
// SQLite file path.
package repomanager

import (
	"context"
	"database/sql"
	"strings"

	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/server/bookmarks"
	"github.com/minkvault/mink/internal/server/notes"
	"github.com/minkvault/mink/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Notes(db dbx.DBTX) notes.Repository
	Folders(db dbx.DBTX) bookmarks.FolderRepository
	Bookmarks(db dbx.DBTX) bookmarks.BookmarkRepository
}

// Open connects to the database named by dsn and returns the connection with
// the matching repository manager.
func Open(dsn string) (*sql.DB, RepositoryManager, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, &PostgresRepositoryManager{}, nil
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, &SQLiteRepositoryManager{}, nil
}
