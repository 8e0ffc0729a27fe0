package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"addr":              "www.example:9000",
		"database_dsn":      "vault.db",
		"secret_key":        "my_secret_key",
		"encryption_pepper": "my_pepper",
		"token_validity":    "48h",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.Addr)
		assert.Equal(t, "vault.db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, "my_pepper", cfg.EncryptionPepper)
		assert.Equal(t, 48*time.Hour, cfg.TokenValidity)
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			Addr:             "defaults:1234",
			DatabaseDSN:      "vault.db",
			SecretKey:        "key",
			EncryptionPepper: "pepper",
			TokenValidity:    2 * time.Hour,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.Addr)
		assert.Equal(t, "vault.db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, "pepper", cfg.EncryptionPepper)
		assert.Equal(t, 2*time.Hour, cfg.TokenValidity)
	})

	t.Run("invalid json panics", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
