package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.Addr, ":8080")
	assert.Equal(t, c.DatabaseDSN, "mink.db")
	assert.Equal(t, c.SecretKey, "secretKey")
	assert.Equal(t, c.EncryptionPepper, "default-pepper-change-in-production")
	assert.Equal(t, c.TokenValidity, 7*24*time.Hour)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, c.Addr, ":8080")
	assert.Equal(t, c.DatabaseDSN, "mink.db")
	assert.Equal(t, c.SecretKey, "secretKey")
	assert.Equal(t, c.EncryptionPepper, "default-pepper-change-in-production")
	assert.Equal(t, c.TokenValidity, 7*24*time.Hour)
}
