package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/minkvault/mink/internal/logging"
	"github.com/minkvault/mink/internal/server/bookmarks"
	"github.com/minkvault/mink/internal/server/migrations"
	"github.com/minkvault/mink/internal/server/notes"
	"github.com/minkvault/mink/internal/server/users"
)

const testPassword = "correct-horse-battery"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	userRepo := users.NewSQLiteRepository(db)
	noteRepo := notes.NewSQLiteRepository(db)
	folderRepo := bookmarks.NewSQLiteFolderRepository(db)
	bookmarkRepo := bookmarks.NewSQLiteBookmarkRepository(db)

	userSvc := users.NewService(db, userRepo, noteRepo, folderRepo, bookmarkRepo, "test-pepper", logger)
	noteSvc := notes.NewService(noteRepo, logger)
	bookmarkSvc := bookmarks.NewService(db, folderRepo, bookmarkRepo, logger)

	api := NewServer(userSvc, noteSvc, bookmarkSvc, []byte("test-secret"), time.Hour, logger)

	ts := httptest.NewServer(api.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token, password string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if password != "" {
		req.Header.Set("X-Password", password)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func register(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()
	resp, body := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	register(t, ts, "alice")

	resp, body := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", "", map[string]string{
		"username": "alice",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", "", map[string]string{
		"username": "alice",
		"password": "wrong-password-here",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotesRequireTokenAndPassword(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	// No token at all.
	resp, _ := doJSON(t, ts, http.MethodGet, "/api/notes", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Token but no password header.
	resp, _ = doJSON(t, ts, http.MethodGet, "/api/notes", token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Both present.
	resp, _ = doJSON(t, ts, http.MethodGet, "/api/notes", token, testPassword, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNoteRoundTripOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	resp, created := doJSON(t, ts, http.MethodPost, "/api/notes", token, testPassword, map[string]any{
		"title":   "groceries",
		"content": "milk",
		"labels":  []string{"home"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	noteID, _ := created["id"].(string)
	require.NotEmpty(t, noteID)

	resp, fetched := doJSON(t, ts, http.MethodGet, "/api/notes/"+noteID, token, testPassword, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "groceries", fetched["title"])
	assert.Equal(t, "milk", fetched["content"])

	// A wrong vault password cannot read the note back.
	resp, _ = doJSON(t, ts, http.MethodGet, "/api/notes/"+noteID, token, "not-the-password", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesForbiddenForRegularUsers(t *testing.T) {
	ts := newTestServer(t)

	adminToken := register(t, ts, "admin") // first account is the admin
	userToken := register(t, ts, "bob")

	resp, _ := doJSON(t, ts, http.MethodGet, "/api/admin/users", userToken, "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/admin/users", adminToken, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChangePasswordOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	resp, created := doJSON(t, ts, http.MethodPost, "/api/notes", token, testPassword, map[string]any{
		"title": "keep me",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	noteID, _ := created["id"].(string)

	resp, changed := doJSON(t, ts, http.MethodPost, "/api/auth/change-password", token, "", map[string]string{
		"current_password": testPassword,
		"new_password":     "brand-new-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), changed["reencrypted_count"])

	// The note now opens with the new password, not the old one.
	resp, fetched := doJSON(t, ts, http.MethodGet, "/api/notes/"+noteID, token, "brand-new-password", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "keep me", fetched["title"])

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/notes/"+noteID, token, testPassword, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
