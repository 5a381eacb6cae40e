// Package migrations embeds the PostgreSQL schema. Files are applied in name order.
package migrations

import "embed"

//go:embed postgres/*.sql
var Postgres embed.FS
