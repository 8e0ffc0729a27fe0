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

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) WithTx(tx dbx.DBTX) Repository {
	return &SQLiteRepository{db: tx}
}

const noteColumns = `id, user_id, encrypted_title, encrypted_content, encrypted_color, encrypted_labels,
	iv, auth_tag, is_pinned, is_archived, created_at, updated_at`

func (r *SQLiteRepository) Create(ctx context.Context, row *vault.NoteRow) error {
	query := `INSERT INTO notes (` + noteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.UserID, row.EncryptedTitle, row.EncryptedContent, row.EncryptedColor,
		row.EncryptedLabels, row.IV, row.AuthTag,
		boolToInt(row.IsPinned), boolToInt(row.IsArchived), row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func scanNoteRow(scan func(dest ...any) error) (*vault.NoteRow, error) {
	row := &vault.NoteRow{}
	var pinned, archived int
	err := scan(&row.ID, &row.UserID, &row.EncryptedTitle, &row.EncryptedContent,
		&row.EncryptedColor, &row.EncryptedLabels, &row.IV, &row.AuthTag,
		&pinned, &archived, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	row.IsPinned = pinned != 0
	row.IsArchived = archived != 0
	return row, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, userID, id string) (*vault.NoteRow, error) {
	sqlRow := r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	row, err := scanNoteRow(sqlRow.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return row, nil
}

func collectNoteRows(rows *sql.Rows) ([]*vault.NoteRow, error) {
	defer rows.Close()
	var out []*vault.NoteRow
	for rows.Next() {
		row, err := scanNoteRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string, archived bool) ([]*vault.NoteRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? AND is_archived = ?
		ORDER BY is_pinned DESC, updated_at DESC`, userID, boolToInt(archived))
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return collectNoteRows(rows)
}

func (r *SQLiteRepository) ListAllByUser(ctx context.Context, userID string) ([]*vault.NoteRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return collectNoteRows(rows)
}

func (r *SQLiteRepository) Update(ctx context.Context, row *vault.NoteRow) error {
	query := `UPDATE notes SET encrypted_title = ?, encrypted_content = ?, encrypted_color = ?,
			encrypted_labels = ?, iv = ?, auth_tag = ?, is_pinned = ?, is_archived = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`

	res, err := r.db.ExecContext(ctx, query,
		row.EncryptedTitle, row.EncryptedContent, row.EncryptedColor, row.EncryptedLabels,
		row.IV, row.AuthTag, boolToInt(row.IsPinned), boolToInt(row.IsArchived), row.UpdatedAt,
		row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

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
