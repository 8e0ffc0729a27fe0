// Package migrations embeds the goose SQL migrations for the vault schema.
// The SQL is kept portable between SQLite and PostgreSQL; booleans are
// stored as INTEGER 0/1 and timestamps as caller-supplied epoch seconds.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
