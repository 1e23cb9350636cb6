// Package migrations embeds the review service schema.
package migrations

import "embed"

// FS holds the *.up.sql files applied by database.RunMigrations in name order.
//
//go:embed *.sql
var FS embed.FS
