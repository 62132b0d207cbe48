package migrations

import "embed"

// FS contains embedded Postgres migrations for contacts storage.
//
//go:embed *.sql
var FS embed.FS
