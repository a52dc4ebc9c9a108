// migrate applies the durable-storage schema to the configured SQL backend; run with go run ./cmd/migrate.
package main

import (
	"flag"
	"fmt"
	"os"

	"quiz-platform/webclient/internal/config"
	"quiz-platform/webclient/internal/storage"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.StorageDriver == config.StorageMemory {
		fmt.Fprintln(os.Stderr, "STORAGE_DRIVER is memory; nothing to migrate")
		return
	}
	databaseURL, err := storage.MigrationURL(cfg.StorageDriver, cfg.StorageDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	if err := storage.Migrate(databaseURL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
