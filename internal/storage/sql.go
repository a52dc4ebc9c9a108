package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect struct {
	driver string
	// placeholder returns the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

var (
	sqliteDialect   = dialect{driver: "sqlite", placeholder: func(int) string { return "?" }}
	postgresDialect = dialect{driver: "pgx", placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }}
)

// SQLStore implements Store over a client_storage table in SQLite or Postgres.
type SQLStore struct {
	db        *sql.DB
	selectSQL string
	upsertSQL string
	deleteSQL string
	nowF      func() time.Time
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	p := d.placeholder
	return &SQLStore{
		db:        db,
		selectSQL: fmt.Sprintf(`SELECT storage_value FROM client_storage WHERE storage_key = %s`, p(1)),
		upsertSQL: fmt.Sprintf(`
INSERT INTO client_storage (storage_key, storage_value, updated_at)
VALUES (%s, %s, %s)
ON CONFLICT (storage_key) DO UPDATE
SET storage_value = excluded.storage_value, updated_at = excluded.updated_at`, p(1), p(2), p(3)),
		deleteSQL: fmt.Sprintf(`DELETE FROM client_storage WHERE storage_key = %s`, p(1)),
		nowF:      time.Now,
	}
}

// OpenSQLite opens (creating if needed) a SQLite storage file and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage: sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("storage: create dir: %w", err)
		}
	}
	if err := Migrate("sqlite://"+cleanPath, "up"); err != nil {
		return nil, err
	}
	db, err := sql.Open(sqliteDialect.driver, cleanPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping sqlite: %w", err)
	}
	return newSQLStore(db, sqliteDialect), nil
}

// OpenPostgres opens a Postgres connection using dsn and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("storage: postgres dsn is required")
	}
	if err := Migrate(dsn, "up"); err != nil {
		return nil, err
	}
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}
	return newSQLStore(db, postgresDialect), nil
}

// Get returns the value for key.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.selectSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return v, true, nil
}

// Put upserts every entry in one transaction.
func (s *SQLStore) Put(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	now := s.nowF().UTC().UnixMilli()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for k, v := range entries {
			if _, err := tx.ExecContext(ctx, s.upsertSQL, k, v, now); err != nil {
				return fmt.Errorf("storage: put %s: %w", k, err)
			}
		}
		return nil
	})
}

// Delete removes keys in one transaction.
func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, s.deleteSQL, k); err != nil {
				return fmt.Errorf("storage: delete %s: %w", k, err)
			}
		}
		return nil
	})
}

// Apply upserts put and deletes del in one transaction.
func (s *SQLStore) Apply(ctx context.Context, put map[string]string, del []string) error {
	if len(put) == 0 && len(del) == 0 {
		return nil
	}
	now := s.nowF().UTC().UnixMilli()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for k, v := range put {
			if _, err := tx.ExecContext(ctx, s.upsertSQL, k, v, now); err != nil {
				return fmt.Errorf("storage: put %s: %w", k, err)
			}
		}
		for _, k := range del {
			if _, err := tx.ExecContext(ctx, s.deleteSQL, k); err != nil {
				return fmt.Errorf("storage: delete %s: %w", k, err)
			}
		}
		return nil
	})
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}
