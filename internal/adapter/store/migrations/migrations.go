// Package migrations embeds the store's goose migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
