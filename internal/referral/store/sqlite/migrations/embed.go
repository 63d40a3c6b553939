// Package migrations embeds the SQL migrations for the SQLite referral store.
package migrations

import "embed"

// FS contains the numbered *.up.sql files, applied in version order.
//
//go:embed *.sql
var FS embed.FS
