// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the vault server.
//
// Fields:
//   - Addr: bind address for the HTTP endpoint.
//   - DatabaseDSN: either a SQLite file path or a PostgreSQL DSN (pgx).
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - EncryptionPepper: process-wide secret mixed into key derivation.
//     Changing it makes every stored record undecryptable.
//   - TokenValidity: session token lifetime.
type Config struct {
	Addr             string
	DatabaseDSN      string
	SecretKey        string
	EncryptionPepper string
	TokenValidity    time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DatabaseDSN = "mink.db"
	c.SecretKey = "secretKey"
	c.EncryptionPepper = "default-pepper-change-in-production"
	c.TokenValidity = 7 * 24 * time.Hour
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
