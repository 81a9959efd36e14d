// Package migrations embeds the SQL migration files for external tooling.
package migrations

import "embed"

// Files exposes all SQL migration files.
//
//go:embed *.sql
var Files embed.FS
