// Package migrations carries the SQL schema applied by groupcalctl migrate.
package migrations

import "embed"

// Files holds every *.sql migration, applied in lexical order.
//
//go:embed *.sql
var Files embed.FS
