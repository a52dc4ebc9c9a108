package storage

import (
	"context"
	"fmt"
)

// Open returns the Store for driver ("memory", "sqlite" or "postgres"). dsn is ignored for memory.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   *SQLStore
		err error
	)
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		s, err = OpenSQLite(ctx, dsn)
	case "postgres":
		s, err = OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
