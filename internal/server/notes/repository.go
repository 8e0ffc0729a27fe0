package notes

import (
	"context"

	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/vault"
)

// Repository stores encrypted note rows. Every method is scoped by user so a
// row can never be read or written across account boundaries. Missing rows
// map to common.ErrNotFound.
type Repository interface {
	// WithTx returns a repository bound to the given transactional handle.
	WithTx(tx dbx.DBTX) Repository

	Create(ctx context.Context, row *vault.NoteRow) error
	GetByID(ctx context.Context, userID, id string) (*vault.NoteRow, error)
	// ListByUser returns non-archived or archived rows, newest first.
	ListByUser(ctx context.Context, userID string, archived bool) ([]*vault.NoteRow, error)
	// ListAllByUser returns every row for the user regardless of archive
	// state, for whole-vault operations.
	ListAllByUser(ctx context.Context, userID string) ([]*vault.NoteRow, error)
	Update(ctx context.Context, row *vault.NoteRow) error
	Delete(ctx context.Context, userID, id string) error
	DeleteAllByUser(ctx context.Context, userID string) error
}
