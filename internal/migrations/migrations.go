// Package migrations embeds the Postgres schema migrations applied at startup.
package migrations

import "embed"

// FS holds the numbered up/down migration files at its root.
//
//go:embed *.sql
var FS embed.FS
