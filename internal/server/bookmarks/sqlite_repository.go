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

// SQLiteFolderRepository implements FolderRepository with '?' placeholders.
type SQLiteFolderRepository struct {
	db dbx.DBTX
}

func NewSQLiteFolderRepository(db dbx.DBTX) *SQLiteFolderRepository {
	return &SQLiteFolderRepository{db: db}
}

func (r *SQLiteFolderRepository) WithTx(tx dbx.DBTX) FolderRepository {
	return &SQLiteFolderRepository{db: tx}
}

const folderColumns = `id, user_id, parent_id, encrypted_name, iv, auth_tag, sort_order, created_at, updated_at`

func (r *SQLiteFolderRepository) Create(ctx context.Context, row *vault.FolderRow) error {
	query := `INSERT INTO bookmark_folders (` + folderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.UserID, nullable(row.ParentID), row.EncryptedName,
		row.IV, row.AuthTag, row.SortOrder, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func scanFolderRow(scan func(dest ...any) error) (*vault.FolderRow, error) {
	row := &vault.FolderRow{}
	var parent sql.NullString
	err := scan(&row.ID, &row.UserID, &parent, &row.EncryptedName,
		&row.IV, &row.AuthTag, &row.SortOrder, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	row.ParentID = parent.String
	return row, nil
}

func (r *SQLiteFolderRepository) GetByID(ctx context.Context, userID, id string) (*vault.FolderRow, error) {
	sqlRow := r.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM bookmark_folders WHERE id = ? AND user_id = ?`, id, userID)
	row, err := scanFolderRow(sqlRow.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return row, nil
}

func collectFolderRows(rows *sql.Rows) ([]*vault.FolderRow, error) {
	defer rows.Close()
	var out []*vault.FolderRow
	for rows.Next() {
		row, err := scanFolderRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteFolderRepository) ListByUser(ctx context.Context, userID string) ([]*vault.FolderRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM bookmark_folders WHERE user_id = ?
		ORDER BY sort_order ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return collectFolderRows(rows)
}

func (r *SQLiteFolderRepository) Update(ctx context.Context, row *vault.FolderRow) error {
	query := `UPDATE bookmark_folders SET parent_id = ?, encrypted_name = ?, iv = ?, auth_tag = ?,
			sort_order = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`

	res, err := r.db.ExecContext(ctx, query,
		nullable(row.ParentID), row.EncryptedName, row.IV, row.AuthTag,
		row.SortOrder, row.UpdatedAt, row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteFolderRepository) DeleteMany(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM bookmark_folders WHERE user_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	_, err := r.db.ExecContext(ctx, query, withUserID(userID, ids)...)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *SQLiteFolderRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bookmark_folders WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// SQLiteBookmarkRepository implements BookmarkRepository with '?' placeholders.
type SQLiteBookmarkRepository struct {
	db dbx.DBTX
}

func NewSQLiteBookmarkRepository(db dbx.DBTX) *SQLiteBookmarkRepository {
	return &SQLiteBookmarkRepository{db: db}
}

func (r *SQLiteBookmarkRepository) WithTx(tx dbx.DBTX) BookmarkRepository {
	return &SQLiteBookmarkRepository{db: tx}
}

const bookmarkColumns = `id, user_id, folder_id, encrypted_title, encrypted_url, encrypted_description,
	iv, auth_tag, is_favorite, sort_order, created_at, updated_at`

func (r *SQLiteBookmarkRepository) Create(ctx context.Context, row *vault.BookmarkRow) error {
	query := `INSERT INTO bookmarks (` + bookmarkColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.UserID, nullable(row.FolderID), row.EncryptedTitle, row.EncryptedURL,
		row.EncryptedDescription, row.IV, row.AuthTag,
		boolToInt(row.IsFavorite), row.SortOrder, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func scanBookmarkRow(scan func(dest ...any) error) (*vault.BookmarkRow, error) {
	row := &vault.BookmarkRow{}
	var folder sql.NullString
	var favorite int
	err := scan(&row.ID, &row.UserID, &folder, &row.EncryptedTitle, &row.EncryptedURL,
		&row.EncryptedDescription, &row.IV, &row.AuthTag,
		&favorite, &row.SortOrder, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	row.FolderID = folder.String
	row.IsFavorite = favorite != 0
	return row, nil
}

func (r *SQLiteBookmarkRepository) GetByID(ctx context.Context, userID, id string) (*vault.BookmarkRow, error) {
	sqlRow := r.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`, id, userID)
	row, err := scanBookmarkRow(sqlRow.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return row, nil
}

func collectBookmarkRows(rows *sql.Rows) ([]*vault.BookmarkRow, error) {
	defer rows.Close()
	var out []*vault.BookmarkRow
	for rows.Next() {
		row, err := scanBookmarkRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteBookmarkRepository) ListByUser(ctx context.Context, userID string) ([]*vault.BookmarkRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = ?
		ORDER BY sort_order ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return collectBookmarkRows(rows)
}

func (r *SQLiteBookmarkRepository) Update(ctx context.Context, row *vault.BookmarkRow) error {
	query := `UPDATE bookmarks SET folder_id = ?, encrypted_title = ?, encrypted_url = ?,
			encrypted_description = ?, iv = ?, auth_tag = ?, is_favorite = ?, sort_order = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`

	res, err := r.db.ExecContext(ctx, query,
		nullable(row.FolderID), row.EncryptedTitle, row.EncryptedURL, row.EncryptedDescription,
		row.IV, row.AuthTag, boolToInt(row.IsFavorite), row.SortOrder, row.UpdatedAt,
		row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteBookmarkRepository) DeleteByFolders(ctx context.Context, userID string, folderIDs []string) error {
	if len(folderIDs) == 0 {
		return nil
	}
	query := `DELETE FROM bookmarks WHERE user_id = ? AND folder_id IN (` + placeholders(len(folderIDs)) + `)`
	if _, err := r.db.ExecContext(ctx, query, withUserID(userID, folderIDs)...); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *SQLiteBookmarkRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteBookmarkRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// nullable maps an empty string to SQL NULL so optional tree links are stored
// as real NULLs, not empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func withUserID(userID string, ids []string) []any {
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	return args
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
