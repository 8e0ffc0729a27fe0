package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/vault"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) WithTx(tx dbx.DBTX) Repository {
	return &PostgresRepository{db: tx}
}

func (r *PostgresRepository) Create(ctx context.Context, row *vault.NoteRow) error {
	query := `INSERT INTO notes (` + noteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.UserID, row.EncryptedTitle, row.EncryptedContent, row.EncryptedColor,
		row.EncryptedLabels, row.IV, row.AuthTag,
		boolToInt(row.IsPinned), boolToInt(row.IsArchived), row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*vault.NoteRow, error) {
	sqlRow := r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	row, err := scanNoteRow(sqlRow.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, archived bool) ([]*vault.NoteRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 AND is_archived = $2
		ORDER BY is_pinned DESC, updated_at DESC`, userID, boolToInt(archived))
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return collectNoteRows(rows)
}

func (r *PostgresRepository) ListAllByUser(ctx context.Context, userID string) ([]*vault.NoteRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return collectNoteRows(rows)
}

func (r *PostgresRepository) Update(ctx context.Context, row *vault.NoteRow) error {
	query := `UPDATE notes SET encrypted_title = $1, encrypted_content = $2, encrypted_color = $3,
			encrypted_labels = $4, iv = $5, auth_tag = $6, is_pinned = $7, is_archived = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11`

	res, err := r.db.ExecContext(ctx, query,
		row.EncryptedTitle, row.EncryptedContent, row.EncryptedColor, row.EncryptedLabels,
		row.IV, row.AuthTag, boolToInt(row.IsPinned), boolToInt(row.IsArchived), row.UpdatedAt,
		row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}
