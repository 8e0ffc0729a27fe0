package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/dbx"
)

// SQLiteRepository implements Repository on a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) WithTx(tx dbx.DBTX) Repository {
	return &SQLiteRepository{db: tx}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, username, email, password_hash, encryption_salt, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.EncryptionSalt,
		user.Role, boolToInt(user.IsActive), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, encryption_salt, role, is_active, created_at, updated_at`

func (r *SQLiteRepository) scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	var active int
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EncryptionSalt,
		&u.Role, &active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	u.IsActive = active != 0
	return u, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (r *SQLiteRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, username, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListWithNoteCounts(ctx context.Context) ([]*Info, error) {
	query := `SELECT u.id, u.username, u.email, u.role, u.is_active, u.created_at, u.updated_at,
			COUNT(n.id) AS note_count
		FROM users u
		LEFT JOIN notes n ON n.user_id = u.id
		GROUP BY u.id, u.username, u.email, u.role, u.is_active, u.created_at, u.updated_at
		ORDER BY u.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var out []*Info
	for rows.Next() {
		info := &Info{}
		var active int
		if err := rows.Scan(&info.ID, &info.Username, &info.Email, &info.Role,
			&active, &info.CreatedAt, &info.UpdatedAt, &info.NoteCount); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		info.IsActive = active != 0
		out = append(out, info)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCredentials(ctx context.Context, id, passwordHash, encryptionSalt string, updatedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, encryption_salt = ?, updated_at = ? WHERE id = ?`,
		passwordHash, encryptionSalt, updatedAt, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) UpdateRoleActive(ctx context.Context, id, role string, isActive bool, updatedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		role, boolToInt(isActive), updatedAt, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// requireRow maps a zero-row-affected result to common.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// isUniqueViolation matches unique-constraint errors from both the sqlite
// and pgx drivers by message, avoiding driver-specific error types here.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}
