package config

import (
	"flag"
	"os"
	"time"

	"github.com/minkvault/mink/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   SQLite file path or PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-e string   encryption pepper
//	-t int      session token validity, hours
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-e", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.EncryptionPepper, "e", config.EncryptionPepper, "encryption pepper")

	tokenValidity := fs.Int("t", int(config.TokenValidity.Hours()), "token validity (in hours)")

	_ = fs.Parse(args)

	config.TokenValidity = time.Duration(*tokenValidity) * time.Hour
}
