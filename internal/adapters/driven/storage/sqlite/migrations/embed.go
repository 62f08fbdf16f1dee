// Package migrations embeds SQL migration files for the SQLite store.
package migrations

import "embed"

// FS contains the format result schema migrations embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
