package bookmarks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/vault"
)

// PostgresFolderRepository implements FolderRepository with pgx-style placeholders.
type PostgresFolderRepository struct {
	db dbx.DBTX
}

func NewPostgresFolderRepository(db dbx.DBTX) *PostgresFolderRepository {
	return &PostgresFolderRepository{db: db}
}

func (r *PostgresFolderRepository) WithTx(tx dbx.DBTX) FolderRepository {
	return &PostgresFolderRepository{db: tx}
}

func (r *PostgresFolderRepository) Create(ctx context.Context, row *vault.FolderRow) error {
	query := `INSERT INTO bookmark_folders (` + folderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.UserID, nullable(row.ParentID), row.EncryptedName,
		row.IV, row.AuthTag, row.SortOrder, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresFolderRepository) GetByID(ctx context.Context, userID, id string) (*vault.FolderRow, error) {
	sqlRow := r.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM bookmark_folders WHERE id = $1 AND user_id = $2`, id, userID)
	row, err := scanFolderRow(sqlRow.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return row, nil
}

func (r *PostgresFolderRepository) ListByUser(ctx context.Context, userID string) ([]*vault.FolderRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM bookmark_folders WHERE user_id = $1
		ORDER BY sort_order ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return collectFolderRows(rows)
}

func (r *PostgresFolderRepository) Update(ctx context.Context, row *vault.FolderRow) error {
	query := `UPDATE bookmark_folders SET parent_id = $1, encrypted_name = $2, iv = $3, auth_tag = $4,
			sort_order = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8`

	res, err := r.db.ExecContext(ctx, query,
		nullable(row.ParentID), row.EncryptedName, row.IV, row.AuthTag,
		row.SortOrder, row.UpdatedAt, row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresFolderRepository) DeleteMany(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM bookmark_folders WHERE user_id = $1 AND id IN (` + pgPlaceholders(2, len(ids)) + `)`
	_, err := r.db.ExecContext(ctx, query, withUserID(userID, ids)...)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresFolderRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bookmark_folders WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// PostgresBookmarkRepository implements BookmarkRepository with pgx-style placeholders.
type PostgresBookmarkRepository struct {
	db dbx.DBTX
}

func NewPostgresBookmarkRepository(db dbx.DBTX) *PostgresBookmarkRepository {
	return &PostgresBookmarkRepository{db: db}
}

func (r *PostgresBookmarkRepository) WithTx(tx dbx.DBTX) BookmarkRepository {
	return &PostgresBookmarkRepository{db: tx}
}

func (r *PostgresBookmarkRepository) Create(ctx context.Context, row *vault.BookmarkRow) error {
	query := `INSERT INTO bookmarks (` + bookmarkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.UserID, nullable(row.FolderID), row.EncryptedTitle, row.EncryptedURL,
		row.EncryptedDescription, row.IV, row.AuthTag,
		boolToInt(row.IsFavorite), row.SortOrder, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresBookmarkRepository) GetByID(ctx context.Context, userID, id string) (*vault.BookmarkRow, error) {
	sqlRow := r.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = $1 AND user_id = $2`, id, userID)
	row, err := scanBookmarkRow(sqlRow.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return row, nil
}

func (r *PostgresBookmarkRepository) ListByUser(ctx context.Context, userID string) ([]*vault.BookmarkRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = $1
		ORDER BY sort_order ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return collectBookmarkRows(rows)
}

func (r *PostgresBookmarkRepository) Update(ctx context.Context, row *vault.BookmarkRow) error {
	query := `UPDATE bookmarks SET folder_id = $1, encrypted_title = $2, encrypted_url = $3,
			encrypted_description = $4, iv = $5, auth_tag = $6, is_favorite = $7, sort_order = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11`

	res, err := r.db.ExecContext(ctx, query,
		nullable(row.FolderID), row.EncryptedTitle, row.EncryptedURL, row.EncryptedDescription,
		row.IV, row.AuthTag, boolToInt(row.IsFavorite), row.SortOrder, row.UpdatedAt,
		row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresBookmarkRepository) DeleteByFolders(ctx context.Context, userID string, folderIDs []string) error {
	if len(folderIDs) == 0 {
		return nil
	}
	query := `DELETE FROM bookmarks WHERE user_id = $1 AND folder_id IN (` + pgPlaceholders(2, len(folderIDs)) + `)`

	args := make([]any, 0, len(folderIDs)+1)
	args = append(args, userID)
	for _, id := range folderIDs {
		args = append(args, id)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresBookmarkRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresBookmarkRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// pgPlaceholders renders "$start, $start+1, ..." for n parameters.
func pgPlaceholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}
