package bookmarks

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/cryptox"
	"github.com/minkvault/mink/internal/logging"
	"github.com/minkvault/mink/internal/server/migrations"
	"github.com/minkvault/mink/internal/vault"
)

const testUserID = "user-1"

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))

	_, err = db.Exec(`INSERT INTO users (id, username, email, password_hash, encryption_salt, role, is_active, created_at, updated_at)
		VALUES (?, 'alice', 'alice@example.com', 'x', 'x', 'user', 1, 0, 0)`, testUserID)
	require.NoError(t, err)

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := NewService(db, NewSQLiteFolderRepository(db), NewSQLiteBookmarkRepository(db), logger)
	return svc, db
}

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := cryptox.DeriveKey("some-password", cryptox.GenerateSalt(), "pepper")
	require.NoError(t, err)
	return key
}

func TestFolderLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	root, err := svc.CreateFolder(ctx, testUserID, key, &vault.Folder{Name: "Work"})
	require.NoError(t, err)
	child, err := svc.CreateFolder(ctx, testUserID, key, &vault.Folder{Name: "Projects", ParentID: root.ID})
	require.NoError(t, err)

	folders, err := svc.ListFolders(ctx, testUserID, key)
	require.NoError(t, err)
	assert.Len(t, folders, 2)

	renamed, err := svc.UpdateFolder(ctx, testUserID, key, &vault.Folder{ID: child.ID, ParentID: root.ID, Name: "Archive"})
	require.NoError(t, err)
	assert.Equal(t, "Archive", renamed.Name)
}

func TestCreateFolder_UnknownParent(t *testing.T) {
	svc, _ := newTestService(t)
	key := testKey(t)

	_, err := svc.CreateFolder(context.Background(), testUserID, key, &vault.Folder{Name: "x", ParentID: "missing"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateFolder_RejectsCycles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	a, err := svc.CreateFolder(ctx, testUserID, key, &vault.Folder{Name: "a"})
	require.NoError(t, err)
	b, err := svc.CreateFolder(ctx, testUserID, key, &vault.Folder{Name: "b", ParentID: a.ID})
	require.NoError(t, err)
	c, err := svc.CreateFolder(ctx, testUserID, key, &vault.Folder{Name: "c", ParentID: b.ID})
	require.NoError(t, err)

	// Self-parent.
	_, err = svc.UpdateFolder(ctx, testUserID, key, &vault.Folder{ID: a.ID, ParentID: a.ID, Name: "a"})
	assert.ErrorIs(t, err, common.ErrValidation)

	// Moving a under its grandchild.
	_, err = svc.UpdateFolder(ctx, testUserID, key, &vault.Folder{ID: a.ID, ParentID: c.ID, Name: "a"})
	assert.ErrorIs(t, err, common.ErrValidation)

	// A legal move still works.
	_, err = svc.UpdateFolder(ctx, testUserID, key, &vault.Folder{ID: c.ID, ParentID: a.ID, Name: "c"})
	assert.NoError(t, err)
}

func TestDeleteFolder_RemovesSubtreeAndItsBookmarks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	parent, err := svc.CreateFolder(ctx, testUserID, key, &vault.Folder{Name: "parent"})
	require.NoError(t, err)
	child, err := svc.CreateFolder(ctx, testUserID, key, &vault.Folder{Name: "child", ParentID: parent.ID})
	require.NoError(t, err)
	sibling, err := svc.CreateFolder(ctx, testUserID, key, &vault.Folder{Name: "sibling"})
	require.NoError(t, err)

	inChild, err := svc.CreateBookmark(ctx, testUserID, key, &vault.Bookmark{
		Title: "deep", URL: "https://example.com/deep", FolderID: child.ID})
	require.NoError(t, err)
	inSibling, err := svc.CreateBookmark(ctx, testUserID, key, &vault.Bookmark{
		Title: "safe", URL: "https://example.com/safe", FolderID: sibling.ID})
	require.NoError(t, err)
	atRoot, err := svc.CreateBookmark(ctx, testUserID, key, &vault.Bookmark{
		Title: "loose", URL: "https://example.com/loose"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFolder(ctx, testUserID, parent.ID))

	folders, err := svc.ListFolders(ctx, testUserID, key)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, sibling.ID, folders[0].ID)

	// Bookmarks inside the deleted subtree go with it.
	_, err = svc.GetBookmark(ctx, testUserID, inChild.ID, key)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Everything outside the subtree stays.
	_, err = svc.GetBookmark(ctx, testUserID, inSibling.ID, key)
	assert.NoError(t, err)
	_, err = svc.GetBookmark(ctx, testUserID, atRoot.ID, key)
	assert.NoError(t, err)
}

func TestBookmarkLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	created, err := svc.CreateBookmark(ctx, testUserID, key, &vault.Bookmark{
		URL: "https://example.com", Description: "homepage"})
	require.NoError(t, err)
	// Empty title falls back to the URL.
	assert.Equal(t, "https://example.com", created.Title)

	created.Title = "Example"
	created.IsFavorite = true
	updated, err := svc.UpdateBookmark(ctx, testUserID, key, created)
	require.NoError(t, err)
	assert.Equal(t, "Example", updated.Title)
	assert.True(t, updated.IsFavorite)

	list, err := svc.ListBookmarks(ctx, testUserID, key)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteBookmark(ctx, testUserID, created.ID))
	assert.ErrorIs(t, svc.DeleteBookmark(ctx, testUserID, created.ID), common.ErrNotFound)
}

func TestCreateBookmark_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	key := testKey(t)

	_, err := svc.CreateBookmark(context.Background(), testUserID, key, &vault.Bookmark{URL: ""})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestListBookmarks_WrongKeyYieldsPlaceholders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	created, err := svc.CreateBookmark(ctx, testUserID, key, &vault.Bookmark{
		Title: "secret", URL: "https://example.com"})
	require.NoError(t, err)

	otherKey := testKey(t)
	list, err := svc.ListBookmarks(ctx, testUserID, otherKey)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].DecryptionError)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Empty(t, list[0].Title)
}

func TestExport_ContainsTreeAndSkipsBroken(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	folder, err := svc.CreateFolder(ctx, testUserID, key, &vault.Folder{Name: "News & Blogs"})
	require.NoError(t, err)
	_, err = svc.CreateBookmark(ctx, testUserID, key, &vault.Bookmark{
		Title: "Example", URL: "https://example.com", FolderID: folder.ID})
	require.NoError(t, err)
	broken, err := svc.CreateBookmark(ctx, testUserID, key, &vault.Bookmark{
		Title: "Broken", URL: "https://broken.example.com"})
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE bookmarks SET auth_tag = '00:00:00' WHERE id = ?`, broken.ID)
	require.NoError(t, err)

	export, err := svc.Export(ctx, testUserID, key)
	require.NoError(t, err)

	assert.Contains(t, export, "NETSCAPE-Bookmark-file-1")
	assert.Contains(t, export, "News &amp; Blogs")
	assert.Contains(t, export, `HREF="https://example.com"`)
	assert.NotContains(t, export, "broken.example.com")
}
