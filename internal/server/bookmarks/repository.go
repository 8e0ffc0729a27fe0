package bookmarks

import (
	"context"

	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/vault"
)

// FolderRepository stores encrypted folder rows. All methods are user-scoped;
// missing rows map to common.ErrNotFound.
type FolderRepository interface {
	// WithTx returns a repository bound to the given transactional handle.
	WithTx(tx dbx.DBTX) FolderRepository

	Create(ctx context.Context, row *vault.FolderRow) error
	GetByID(ctx context.Context, userID, id string) (*vault.FolderRow, error)
	// ListByUser returns all folders ordered by sort_order then creation time.
	ListByUser(ctx context.Context, userID string) ([]*vault.FolderRow, error)
	Update(ctx context.Context, row *vault.FolderRow) error
	// DeleteMany removes the given folders in one statement. Used by the
	// recursive folder delete, which resolves the subtree first.
	DeleteMany(ctx context.Context, userID string, ids []string) error
	DeleteAllByUser(ctx context.Context, userID string) error
}

// BookmarkRepository stores encrypted bookmark rows.
type BookmarkRepository interface {
	// WithTx returns a repository bound to the given transactional handle.
	WithTx(tx dbx.DBTX) BookmarkRepository

	Create(ctx context.Context, row *vault.BookmarkRow) error
	GetByID(ctx context.Context, userID, id string) (*vault.BookmarkRow, error)
	// ListByUser returns all bookmarks ordered by sort_order then creation time.
	ListByUser(ctx context.Context, userID string) ([]*vault.BookmarkRow, error)
	Update(ctx context.Context, row *vault.BookmarkRow) error
	// DeleteByFolders removes every bookmark stored in the given folders.
	// Used by the recursive folder delete, which resolves the subtree first.
	DeleteByFolders(ctx context.Context, userID string, folderIDs []string) error
	Delete(ctx context.Context, userID, id string) error
	DeleteAllByUser(ctx context.Context, userID string) error
}
