// Package migrations embeds the SQL schema migrations.
//
// The statements stick to the subset of SQL shared by PostgreSQL and SQLite
// so the same files run in production and in tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
