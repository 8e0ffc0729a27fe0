package vault

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minkvault/mink/internal/cryptox"
)

func deriveTestKey(t *testing.T, password string) []byte {
	t.Helper()
	key, err := cryptox.DeriveKey(password, cryptox.GenerateSalt(), "test-pepper")
	require.NoError(t, err)
	return key
}

func TestNote_EncryptDecryptRoundTrip(t *testing.T) {
	key := deriveTestKey(t, "password-one")

	original := &Note{
		ID:       "note-1",
		Title:    "Groceries",
		Content:  "milk\neggs & bread",
		Color:    "yellow",
		Labels:   []string{"home", "shopping"},
		IsPinned: true,
	}

	row, err := EncryptNote(original, key)
	require.NoError(t, err)
	assert.Len(t, strings.Split(row.AuthTag, ":"), 4, "note stores four tags in fixed order")
	assert.NotEmpty(t, row.IV)

	got, err := DecryptNote(row, key)
	require.NoError(t, err)
	assert.Equal(t, original.Title, got.Title)
	assert.Equal(t, original.Content, got.Content)
	assert.Equal(t, original.Color, got.Color)
	assert.Equal(t, original.Labels, got.Labels)
	assert.True(t, got.IsPinned)
}

func TestNote_WrongKeyFailsAuthentication(t *testing.T) {
	row, err := EncryptNote(&Note{Title: "secret"}, deriveTestKey(t, "password-one"))
	require.NoError(t, err)

	_, err = DecryptNote(row, deriveTestKey(t, "password-two"))
	require.ErrorIs(t, err, cryptox.ErrAuthentication)
}

func TestNote_Defaults(t *testing.T) {
	key := deriveTestKey(t, "pw")

	row, err := EncryptNote(&Note{Title: "untagged"}, key)
	require.NoError(t, err)

	got, err := DecryptNote(row, key)
	require.NoError(t, err)
	assert.Equal(t, "default", got.Color, "empty color becomes the default palette entry")
	assert.Equal(t, []string{}, got.Labels, "nil labels canonicalize to an empty JSON array")
}

func TestNote_FreshIVPerWrite(t *testing.T) {
	key := deriveTestKey(t, "pw")
	n := &Note{ID: "n1", Title: "same note"}

	first, err := EncryptNote(n, key)
	require.NoError(t, err)
	second, err := EncryptNote(n, key)
	require.NoError(t, err)

	assert.NotEqual(t, first.IV, second.IV, "every write must regenerate the IV")
	assert.NotEqual(t, first.EncryptedTitle, second.EncryptedTitle)
}

func TestNote_ReorderedTagsFailAuthentication(t *testing.T) {
	key := deriveTestKey(t, "pw")
	row, err := EncryptNote(&Note{Title: "a", Content: "b", Color: "c", Labels: []string{"d"}}, key)
	require.NoError(t, err)

	tags := strings.Split(row.AuthTag, ":")
	tags[0], tags[1] = tags[1], tags[0]
	row.AuthTag = strings.Join(tags, ":")

	_, err = DecryptNote(row, key)
	require.ErrorIs(t, err, cryptox.ErrAuthentication)
}

func TestNote_TruncatedTagListFailsAuthentication(t *testing.T) {
	key := deriveTestKey(t, "pw")
	row, err := EncryptNote(&Note{Title: "a"}, key)
	require.NoError(t, err)

	row.AuthTag = strings.Join(strings.Split(row.AuthTag, ":")[:3], ":")
	_, err = DecryptNote(row, key)
	require.ErrorIs(t, err, cryptox.ErrAuthentication)
}

func TestBookmark_EncryptDecryptRoundTrip(t *testing.T) {
	key := deriveTestKey(t, "pw")

	original := &Bookmark{
		ID:          "bm-1",
		FolderID:    "folder-1",
		Title:       "Go \"spec\"",
		URL:         "https://go.dev/ref/spec?x=1",
		Description: "language reference",
		IsFavorite:  true,
	}

	row, err := EncryptBookmark(original, key)
	require.NoError(t, err)
	assert.Len(t, strings.Split(row.AuthTag, ":"), 3, "bookmark stores three tags in fixed order")
	assert.Equal(t, "folder-1", row.FolderID, "folder link is metadata, not ciphertext")

	got, err := DecryptBookmark(row, key)
	require.NoError(t, err)
	assert.Equal(t, original.Title, got.Title)
	assert.Equal(t, original.URL, got.URL)
	assert.Equal(t, original.Description, got.Description)
	assert.True(t, got.IsFavorite)
}

func TestFolder_EncryptDecryptRoundTrip(t *testing.T) {
	key := deriveTestKey(t, "pw")

	row, err := EncryptFolder(&Folder{ID: "f1", ParentID: "f0", Name: "Work / Projects"}, key)
	require.NoError(t, err)
	assert.NotContains(t, row.AuthTag, ":", "folder has a single tag")

	got, err := DecryptFolder(row, key)
	require.NoError(t, err)
	assert.Equal(t, "Work / Projects", got.Name)
	assert.Equal(t, "f0", got.ParentID)
}

func TestSafeDecrypt_MarkersOnFailure(t *testing.T) {
	goodKey := deriveTestKey(t, "pw")
	badKey := deriveTestKey(t, "other")

	noteRow, err := EncryptNote(&Note{ID: "n1", Title: "t"}, goodKey)
	require.NoError(t, err)
	note := SafeDecryptNote(noteRow, badKey)
	assert.True(t, note.DecryptionError)
	assert.Equal(t, "n1", note.ID)
	assert.Empty(t, note.Title, "no partial plaintext on failure")

	bmRow, err := EncryptBookmark(&Bookmark{ID: "b1", FolderID: "f1", URL: "https://x.test"}, goodKey)
	require.NoError(t, err)
	bm := SafeDecryptBookmark(bmRow, badKey)
	assert.True(t, bm.DecryptionError)
	assert.Equal(t, "f1", bm.FolderID)

	fRow, err := EncryptFolder(&Folder{ID: "f1", Name: "secret name"}, goodKey)
	require.NoError(t, err)
	f := SafeDecryptFolder(fRow, badKey)
	assert.True(t, f.DecryptionError)
	assert.Equal(t, "[encrypted]", f.Name)
}

func TestSafeDecrypt_PassThroughOnSuccess(t *testing.T) {
	key := deriveTestKey(t, "pw")
	row, err := EncryptNote(&Note{ID: "n1", Title: "fine"}, key)
	require.NoError(t, err)

	note := SafeDecryptNote(row, key)
	assert.False(t, note.DecryptionError)
	assert.Equal(t, "fine", note.Title)
}

func TestNote_CorruptedLabelsJSONIsAnError(t *testing.T) {
	// Encrypt a row whose labels field decrypts fine but is not valid JSON.
	key := deriveTestKey(t, "pw")
	row, err := EncryptNote(&Note{Title: "x"}, key)
	require.NoError(t, err)

	// Rebuild the labels ciphertext with garbage plaintext under the same IV.
	rawIV, err := hex.DecodeString(row.IV)
	require.NoError(t, err)
	ct, tag, err := cryptox.EncryptField("{not json", key, rawIV)
	require.NoError(t, err)
	row.EncryptedLabels = ct
	tags := strings.Split(row.AuthTag, ":")
	tags[3] = tag
	row.AuthTag = strings.Join(tags, ":")

	_, err = DecryptNote(row, key)
	require.Error(t, err)
	require.NotErrorIs(t, err, cryptox.ErrAuthentication, "valid ciphertext, invalid JSON")
}
