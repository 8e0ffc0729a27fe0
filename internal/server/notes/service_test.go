package notes

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

	// Notes reference users; satisfy the foreign key.
	_, err = db.Exec(`INSERT INTO users (id, username, email, password_hash, encryption_salt, role, is_active, created_at, updated_at)
		VALUES (?, 'alice', 'alice@example.com', 'x', 'x', 'user', 1, 0, 0)`, testUserID)
	require.NoError(t, err)

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewService(NewSQLiteRepository(db), logger), db
}

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := cryptox.DeriveKey("some-password", cryptox.GenerateSalt(), "pepper")
	require.NoError(t, err)
	return key
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	created, err := svc.Create(ctx, testUserID, key, &vault.Note{
		Title:   "groceries",
		Content: "milk, eggs",
		Labels:  []string{"home"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "default", created.Color)

	got, err := svc.Get(ctx, testUserID, created.ID, key)
	require.NoError(t, err)
	assert.Equal(t, "groceries", got.Title)
	assert.Equal(t, "milk, eggs", got.Content)
	assert.Equal(t, []string{"home"}, got.Labels)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	key := testKey(t)

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.Create(context.Background(), testUserID, key, &vault.Note{Title: string(long)})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestList_SeparatesArchived(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	_, err := svc.Create(ctx, testUserID, key, &vault.Note{Title: "active"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, testUserID, key, &vault.Note{Title: "archived", IsArchived: true})
	require.NoError(t, err)

	active, err := svc.List(ctx, testUserID, key, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active", active[0].Title)

	archived, err := svc.List(ctx, testUserID, key, true)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "archived", archived[0].Title)
}

func TestUpdate_RotatesIV(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	created, err := svc.Create(ctx, testUserID, key, &vault.Note{Title: "v1"})
	require.NoError(t, err)

	var ivBefore string
	require.NoError(t, db.QueryRow(`SELECT iv FROM notes WHERE id = ?`, created.ID).Scan(&ivBefore))

	updated, err := svc.Update(ctx, testUserID, key, &vault.Note{ID: created.ID, Title: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	var ivAfter string
	require.NoError(t, db.QueryRow(`SELECT iv FROM notes WHERE id = ?`, created.ID).Scan(&ivAfter))
	assert.NotEqual(t, ivBefore, ivAfter)
}

func TestUpdate_UnknownNote(t *testing.T) {
	svc, _ := newTestService(t)
	key := testKey(t)

	_, err := svc.Update(context.Background(), testUserID, key, &vault.Note{ID: "missing", Title: "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestList_UndecryptableNoteBecomesPlaceholder(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	good, err := svc.Create(ctx, testUserID, key, &vault.Note{Title: "good"})
	require.NoError(t, err)
	bad, err := svc.Create(ctx, testUserID, key, &vault.Note{Title: "bad"})
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE notes SET auth_tag = '00:00:00:00' WHERE id = ?`, bad.ID)
	require.NoError(t, err)

	list, err := svc.List(ctx, testUserID, key, false)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[string]*vault.Note{}
	for _, n := range list {
		byID[n.ID] = n
	}
	assert.False(t, byID[good.ID].DecryptionError)
	assert.Equal(t, "good", byID[good.ID].Title)
	assert.True(t, byID[bad.ID].DecryptionError)
	assert.Empty(t, byID[bad.ID].Title)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	created, err := svc.Create(ctx, testUserID, key, &vault.Note{Title: "gone"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, testUserID, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, testUserID, created.ID), common.ErrNotFound)
}

func TestUserScoping(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	key := testKey(t)

	_, err := db.Exec(`INSERT INTO users (id, username, email, password_hash, encryption_salt, role, is_active, created_at, updated_at)
		VALUES ('user-2', 'bob', 'bob@example.com', 'x', 'x', 'user', 1, 0, 0)`)
	require.NoError(t, err)

	created, err := svc.Create(ctx, testUserID, key, &vault.Note{Title: "mine"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "user-2", created.ID, key)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "user-2", created.ID), common.ErrNotFound)
}
