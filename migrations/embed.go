// Package migrations embeds the PostgreSQL schema so the binary can migrate
// a database without access to the source tree.
package migrations

import "embed"

// FS holds every .sql file in this directory, applied in name order.
//
//go:embed *.sql
var FS embed.FS
