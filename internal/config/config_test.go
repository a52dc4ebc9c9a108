package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, "http://localhost:8000")
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v, want 10s", cfg.HTTPTimeout)
	}
	if cfg.ExpiryCheckInterval != 60*time.Second {
		t.Errorf("ExpiryCheckInterval = %v, want 60s", cfg.ExpiryCheckInterval)
	}
	if cfg.StorageDriver != StorageSQLite {
		t.Errorf("StorageDriver = %q, want %q", cfg.StorageDriver, StorageSQLite)
	}
	if cfg.PageLimit != 10 {
		t.Errorf("PageLimit = %d, want 10", cfg.PageLimit)
	}
	if cfg.DefaultLocale != "en" {
		t.Errorf("DefaultLocale = %q, want %q", cfg.DefaultLocale, "en")
	}
	if cfg.ServiceName != "quiz-webclient" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "quiz-webclient")
	}
	if cfg.OTLPInsecure {
		t.Error("OTLPInsecure should default to false")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("API_BASE_URL", "https://api.example.com")
	os.Setenv("HTTP_TIMEOUT", "3s")
	os.Setenv("STORAGE_DRIVER", "memory")
	os.Setenv("PAGE_LIMIT", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("HTTPTimeout = %v, want 3s", cfg.HTTPTimeout)
	}
	if cfg.StorageDriver != StorageMemory {
		t.Errorf("StorageDriver = %q, want memory", cfg.StorageDriver)
	}
	if cfg.PageLimit != 25 {
		t.Errorf("PageLimit = %d, want 25", cfg.PageLimit)
	}
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"relative base url", map[string]string{"API_BASE_URL": "/api"}},
		{"ftp base url", map[string]string{"API_BASE_URL": "ftp://host"}},
		{"zero timeout", map[string]string{"HTTP_TIMEOUT": "0s"}},
		{"zero interval", map[string]string{"EXPIRY_CHECK_INTERVAL": "0s"}},
		{"limit too low", map[string]string{"PAGE_LIMIT": "0"}},
		{"limit too high", map[string]string{"PAGE_LIMIT": "101"}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "redis"}},
		{"memory in production", map[string]string{"STORAGE_DRIVER": "memory", "APP_ENV": "production"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tc.env {
				os.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("Load should return error")
			}
		})
	}
}
