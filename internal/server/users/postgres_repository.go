package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/dbx"
)

// PostgresRepository implements Repository with pgx-style placeholders.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) WithTx(tx dbx.DBTX) Repository {
	return &PostgresRepository{db: tx}
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, username, email, password_hash, encryption_salt, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

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

func (r *PostgresRepository) scanUser(row *sql.Row) (*User, error) {
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

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *PostgresRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = $1 OR email = $2`, username, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListWithNoteCounts(ctx context.Context) ([]*Info, error) {
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

func (r *PostgresRepository) UpdateCredentials(ctx context.Context, id, passwordHash, encryptionSalt string, updatedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, encryption_salt = $2, updated_at = $3 WHERE id = $4`,
		passwordHash, encryptionSalt, updatedAt, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdateRoleActive(ctx context.Context, id, role string, isActive bool, updatedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, is_active = $2, updated_at = $3 WHERE id = $4`,
		role, boolToInt(isActive), updatedAt, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}
