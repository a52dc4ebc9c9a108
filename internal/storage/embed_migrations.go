package storage

import "embed"

// MigrationFS embeds the durable-storage schema. Both SQL drivers share the same files.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
