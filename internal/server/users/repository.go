package users

import (
	"context"

	"github.com/minkvault/mink/internal/dbx"
)

// Repository is the account store. Implementations return
// common.ErrNotFound for missing rows and common.ErrConflict for
// username/email uniqueness violations.
type Repository interface {
	// WithTx returns a repository bound to the given transactional handle.
	WithTx(tx dbx.DBTX) Repository

	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Count(ctx context.Context) (int, error)
	ListWithNoteCounts(ctx context.Context) ([]*Info, error)

	// UpdateCredentials swaps the password hash and encryption salt together;
	// they must never change independently.
	UpdateCredentials(ctx context.Context, id, passwordHash, encryptionSalt string, updatedAt int64) error
	UpdateRoleActive(ctx context.Context, id, role string, isActive bool, updatedAt int64) error
	Delete(ctx context.Context, id string) error
}
