package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// exerciseStore runs the shared Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, KeyToken); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v; want false, nil", ok, err)
	}
	if err := s.Put(ctx, map[string]string{KeyToken: "t1", KeyRefreshToken: "r1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if v, ok, err := s.Get(ctx, KeyToken); err != nil || !ok || v != "t1" {
		t.Fatalf("Get token = %q, %v, %v; want t1, true, nil", v, ok, err)
	}
	if err := s.Put(ctx, map[string]string{KeyToken: "t2"}); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if v, _, _ := s.Get(ctx, KeyToken); v != "t2" {
		t.Errorf("token after overwrite = %q, want t2", v)
	}
	if v, _, _ := s.Get(ctx, KeyRefreshToken); v != "r1" {
		t.Errorf("refresh token = %q, want r1", v)
	}
	if err := s.Delete(ctx, KeyToken, KeyRefreshToken, "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, k := range []string{KeyToken, KeyRefreshToken} {
		if _, ok, _ := s.Get(ctx, k); ok {
			t.Errorf("key %q still present after Delete", k)
		}
	}
	if err := s.Delete(ctx, KeyToken); err != nil {
		t.Errorf("second Delete: %v", err)
	}

	if err := s.Put(ctx, map[string]string{KeyToken: "t3", KeyRefreshToken: "r3"}); err != nil {
		t.Fatalf("Put before Apply: %v", err)
	}
	if err := s.Apply(ctx, map[string]string{KeyToken: "t4"}, []string{KeyRefreshToken}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if v, _, _ := s.Get(ctx, KeyToken); v != "t4" {
		t.Errorf("token after Apply = %q, want t4", v)
	}
	if _, ok, _ := s.Get(ctx, KeyRefreshToken); ok {
		t.Error("refresh token survived Apply delete")
	}
	if err := s.Apply(ctx, nil, nil); err != nil {
		t.Errorf("empty Apply: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Close()
	if _, _, err := s.Get(context.Background(), KeyToken); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close err = %v, want ErrClosed", err)
	}
	if err := s.Put(context.Background(), map[string]string{KeyToken: "x"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Put after Close err = %v, want ErrClosed", err)
	}
	if err := s.Apply(context.Background(), map[string]string{KeyToken: "x"}, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Apply after Close err = %v, want ErrClosed", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.db")
	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Put(ctx, map[string]string{KeyLocale: "uk"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = s.Close()

	s2, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if v, ok, err := s2.Get(ctx, KeyLocale); err != nil || !ok || v != "uk" {
		t.Errorf("Get after reopen = %q, %v, %v; want uk, true, nil", v, ok, err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name   string
		driver string
		dsn    string
	}{
		{"unknown driver", "redis", "x"},
		{"empty sqlite path", "sqlite", "  "},
		{"empty postgres dsn", "postgres", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Open(ctx, tc.driver, tc.dsn)
			if err == nil {
				_ = s.Close()
				t.Fatal("Open should return error")
			}
		})
	}
}

func TestMigrate_InvalidDirection(t *testing.T) {
	if err := Migrate("sqlite://"+filepath.Join(t.TempDir(), "x.db"), "sideways"); err == nil {
		t.Fatal("Migrate should reject unknown direction")
	}
	if err := Migrate("", "up"); err == nil {
		t.Fatal("Migrate should reject empty url")
	}
}

func TestMigrationURL(t *testing.T) {
	testCases := []struct {
		driver, dsn string
		want        string
		wantErr     bool
	}{
		{"sqlite", "data/./store.db", "sqlite://data/store.db", false},
		{"postgres", "postgres://u:p@localhost/db", "postgres://u:p@localhost/db", false},
		{"sqlite", "", "", true},
		{"postgres", "", "", true},
		{"memory", "", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.driver+" "+tc.dsn, func(t *testing.T) {
			got, err := MigrationURL(tc.driver, tc.dsn)
			if (err != nil) != tc.wantErr {
				t.Fatalf("MigrationURL err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("MigrationURL = %q, want %q", got, tc.want)
			}
		})
	}
}
