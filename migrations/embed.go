// Package migrations embeds the ledger store schema, applied per
// tenant schema at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
