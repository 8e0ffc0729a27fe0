package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/cryptox"
	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/logging"
	"github.com/minkvault/mink/internal/server/bookmarks"
	"github.com/minkvault/mink/internal/server/notes"
	"github.com/minkvault/mink/internal/validation"
	"github.com/minkvault/mink/internal/vault"
)

// ReEncryptionError reports the first record that could not be carried across
// a password change. The transaction rolls back, so the vault is untouched.
type ReEncryptionError struct {
	RecordType string
	RecordID   string
	Err        error
}

func (e *ReEncryptionError) Error() string {
	return fmt.Sprintf("re-encryption failed on %s %s: %v", e.RecordType, e.RecordID, e.Err)
}

func (e *ReEncryptionError) Unwrap() error {
	return e.Err
}

// Service implements account lifecycle operations, including the atomic
// re-encryption performed on password change. The pepper is the process-wide
// key-derivation secret from configuration.
type Service struct {
	db        *sql.DB
	users     Repository
	notes     notes.Repository
	folders   bookmarks.FolderRepository
	bookmarks bookmarks.BookmarkRepository
	pepper    string
	logger    logging.Logger
}

func NewService(db *sql.DB, users Repository, noteRepo notes.Repository,
	folderRepo bookmarks.FolderRepository, bookmarkRepo bookmarks.BookmarkRepository,
	pepper string, logger logging.Logger) *Service {
	return &Service{
		db:        db,
		users:     users,
		notes:     noteRepo,
		folders:   folderRepo,
		bookmarks: bookmarkRepo,
		pepper:    pepper,
		logger:    logger,
	}
}

// dummyHash is a valid argon2id encoding verified against on login attempts
// for unknown usernames, so the response time does not reveal whether the
// account exists.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=4$c29tZXNhbHRzb21lc2FsdA$RdescudvJCsgt3ub+b+dWRWJTmaaJObG"

// Register creates an account. The very first account becomes the admin;
// everyone after that is a regular user.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	if err := validation.Username(username); err != nil {
		return nil, err
	}
	if err := validation.Email(email); err != nil {
		return nil, err
	}
	if err := validation.Password(password); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: username or email already taken", common.ErrConflict)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	role := RoleUser
	if count == 0 {
		role = RoleAdmin
	}

	now := time.Now().Unix()
	user := &User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		EncryptionSalt: cryptox.GenerateSalt(),
		Role:           role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies the password and returns the account. Unknown usernames
// still burn an argon2 verification so timing does not leak existence, and
// the caller sees the same ErrUnauthorized either way.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_, _ = cryptox.VerifyPassword(password, dummyHash)
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, common.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", common.ErrForbidden)
	}
	return user, nil
}

// GetByID returns the account for the given ID.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// DeriveKey derives the user's ephemeral encryption key from a presented
// password. The caller owns the key and must wipe it when done.
func (s *Service) DeriveKey(password string, user *User) ([]byte, error) {
	return cryptox.DeriveKey(password, user.EncryptionSalt, s.pepper)
}

// ChangePassword swaps the account credentials and re-encrypts every record
// in the vault under the new key, all in one transaction. If any single
// record fails to decrypt or re-encrypt, nothing changes. Returns how many
// records were carried across.
//
// The new password must verify the vault can be read: the old key comes from
// the current password, so a wrong current password fails on the hash check
// before any data is touched.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (int, error) {
	if err := validation.Password(newPassword); err != nil {
		return 0, err
	}
	if newPassword == currentPassword {
		return 0, fmt.Errorf("%w: new password must differ from the current one", common.ErrValidation)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	ok, err := cryptox.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		return 0, common.ErrUnauthorized
	}

	oldKey, err := cryptox.DeriveKey(currentPassword, user.EncryptionSalt, s.pepper)
	if err != nil {
		return 0, err
	}
	defer common.WipeByteArray(oldKey)

	newSalt := cryptox.GenerateSalt()
	newKey, err := cryptox.DeriveKey(newPassword, newSalt, s.pepper)
	if err != nil {
		return 0, err
	}
	defer common.WipeByteArray(newKey)

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return 0, err
	}

	reencrypted := 0
	now := time.Now().Unix()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.reEncryptNotes(ctx, tx, userID, oldKey, newKey, now)
		if err != nil {
			return err
		}
		reencrypted += n
		n, err = s.reEncryptBookmarks(ctx, tx, userID, oldKey, newKey, now)
		if err != nil {
			return err
		}
		reencrypted += n
		n, err = s.reEncryptFolders(ctx, tx, userID, oldKey, newKey, now)
		if err != nil {
			return err
		}
		reencrypted += n
		return s.users.WithTx(tx).UpdateCredentials(ctx, userID, newHash, newSalt, now)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "password changed, vault re-encrypted",
		"user_id", userID, "records", reencrypted)
	return reencrypted, nil
}

func (s *Service) reEncryptNotes(ctx context.Context, tx dbx.DBTX, userID string, oldKey, newKey []byte, now int64) (int, error) {
	repo := s.notes.WithTx(tx)
	rows, err := repo.ListAllByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		note, err := vault.DecryptNote(row, oldKey)
		if err != nil {
			return 0, &ReEncryptionError{RecordType: "note", RecordID: row.ID, Err: err}
		}
		fresh, err := vault.EncryptNote(note, newKey)
		if err != nil {
			return 0, &ReEncryptionError{RecordType: "note", RecordID: row.ID, Err: err}
		}
		fresh.UserID = userID
		fresh.UpdatedAt = now
		if err := repo.Update(ctx, fresh); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (s *Service) reEncryptBookmarks(ctx context.Context, tx dbx.DBTX, userID string, oldKey, newKey []byte, now int64) (int, error) {
	repo := s.bookmarks.WithTx(tx)
	rows, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		b, err := vault.DecryptBookmark(row, oldKey)
		if err != nil {
			return 0, &ReEncryptionError{RecordType: "bookmark", RecordID: row.ID, Err: err}
		}
		fresh, err := vault.EncryptBookmark(b, newKey)
		if err != nil {
			return 0, &ReEncryptionError{RecordType: "bookmark", RecordID: row.ID, Err: err}
		}
		fresh.UserID = userID
		fresh.UpdatedAt = now
		if err := repo.Update(ctx, fresh); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (s *Service) reEncryptFolders(ctx context.Context, tx dbx.DBTX, userID string, oldKey, newKey []byte, now int64) (int, error) {
	repo := s.folders.WithTx(tx)
	rows, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		f, err := vault.DecryptFolder(row, oldKey)
		if err != nil {
			return 0, &ReEncryptionError{RecordType: "folder", RecordID: row.ID, Err: err}
		}
		fresh, err := vault.EncryptFolder(f, newKey)
		if err != nil {
			return 0, &ReEncryptionError{RecordType: "folder", RecordID: row.ID, Err: err}
		}
		fresh.UserID = userID
		fresh.UpdatedAt = now
		if err := repo.Update(ctx, fresh); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// ClearData deletes every record the user owns after verifying the password.
// The account itself survives.
func (s *Service) ClearData(ctx context.Context, userID, password string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return common.ErrUnauthorized
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.notes.WithTx(tx).DeleteAllByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.bookmarks.WithTx(tx).DeleteAllByUser(ctx, userID); err != nil {
			return err
		}
		return s.folders.WithTx(tx).DeleteAllByUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "user data cleared", "user_id", userID)
	return nil
}

// ListUsers returns all accounts with note counts, for the admin screen.
func (s *Service) ListUsers(ctx context.Context) ([]*Info, error) {
	return s.users.ListWithNoteCounts(ctx)
}

// CreateUser is the admin path for provisioning an account with an explicit
// role.
func (s *Service) CreateUser(ctx context.Context, username, email, password, role string) (*User, error) {
	if role != RoleAdmin && role != RoleUser {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}

	user, err := s.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		user.Role = role
		user.UpdatedAt = time.Now().Unix()
		if err := s.users.UpdateRoleActive(ctx, user.ID, user.Role, user.IsActive, user.UpdatedAt); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// UpdateUser changes an account's role or active flag. Admins cannot demote
// or deactivate themselves.
func (s *Service) UpdateUser(ctx context.Context, adminID, targetID, role string, isActive bool) error {
	if adminID == targetID {
		return fmt.Errorf("%w: cannot modify own account", common.ErrValidation)
	}
	if role != RoleAdmin && role != RoleUser {
		return fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}
	return s.users.UpdateRoleActive(ctx, targetID, role, isActive, time.Now().Unix())
}

// DeleteUser removes an account and, through the schema's cascades, all of
// its records. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, adminID, targetID string) error {
	if adminID == targetID {
		return fmt.Errorf("%w: cannot delete own account", common.ErrValidation)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.notes.WithTx(tx).DeleteAllByUser(ctx, targetID); err != nil {
			return err
		}
		if err := s.bookmarks.WithTx(tx).DeleteAllByUser(ctx, targetID); err != nil {
			return err
		}
		if err := s.folders.WithTx(tx).DeleteAllByUser(ctx, targetID); err != nil {
			return err
		}
		return s.users.WithTx(tx).Delete(ctx, targetID)
	})
}

// ResetPassword is the admin recovery path: it sets a new password and a new
// salt WITHOUT re-encrypting, because the admin does not know the old
// password and therefore cannot derive the old key. Existing records become
// permanently undecryptable; read paths surface them as placeholder entries.
func (s *Service) ResetPassword(ctx context.Context, targetID, newPassword string) error {
	if err := validation.Password(newPassword); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdateCredentials(ctx, targetID, hash, cryptox.GenerateSalt(), time.Now().Unix()); err != nil {
		return err
	}

	s.logger.Warn(ctx, "password reset without re-encryption, existing records orphaned", "user_id", targetID)
	return nil
}

// ClearUserData is the admin variant of ClearData: no password check, used
// together with ResetPassword to give a locked-out user a clean slate.
func (s *Service) ClearUserData(ctx context.Context, targetID string) error {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.notes.WithTx(tx).DeleteAllByUser(ctx, targetID); err != nil {
			return err
		}
		if err := s.bookmarks.WithTx(tx).DeleteAllByUser(ctx, targetID); err != nil {
			return err
		}
		return s.folders.WithTx(tx).DeleteAllByUser(ctx, targetID)
	})
}
