package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"POS_HANDOFF_ENABLED", "POS_HANDOFF_ALLOWED_STORE_ID", "POS_HANDOFF_EXPIRY_MINUTES", "HANDOFF_STORE", "STAFF_PINS", "RATE_LIMIT_POS_HANDOFF_CREATE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HandoffEnabled {
		t.Fatalf("handoff should default to disabled")
	}
	if got := cfg.PrimaryStoreID(); got != "riverside" {
		t.Fatalf("expected riverside, got %q", got)
	}
	if cfg.Expiry() != 60*time.Minute {
		t.Fatalf("expected 60m expiry, got %s", cfg.Expiry())
	}
	if cfg.StoreBackend != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %s", cfg.StoreBackend)
	}
	if l := cfg.Limit(NamespaceCreate); l.MaxRequests != 20 || l.Window != time.Minute {
		t.Fatalf("unexpected create limit: %+v", l)
	}
	if l := cfg.Limit(NamespaceLookup); l.MaxRequests != 30 {
		t.Fatalf("unexpected lookup limit: %+v", l)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POS_HANDOFF_ENABLED", " Yes ")
	t.Setenv("POS_HANDOFF_ALLOWED_STORE_ID", " Riverside , Downtown ,")
	t.Setenv("POS_HANDOFF_EXPIRY_MINUTES", "15")
	t.Setenv("STAFF_PINS", "alice:$2a$10$abc, bob:$2a$10$def")
	t.Setenv("RATE_LIMIT_POS_HANDOFF_CREATE", "5/10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.HandoffEnabled {
		t.Fatalf("expected enabled")
	}
	if len(cfg.AllowedStoreIDs) != 2 || cfg.AllowedStoreIDs[0] != "riverside" || cfg.AllowedStoreIDs[1] != "downtown" {
		t.Fatalf("unexpected store ids: %v", cfg.AllowedStoreIDs)
	}
	if cfg.ExpiryMinutes != 15 {
		t.Fatalf("expected 15, got %d", cfg.ExpiryMinutes)
	}
	if cfg.StaffPINs["bob"] != "$2a$10$def" {
		t.Fatalf("unexpected pins: %v", cfg.StaffPINs)
	}
	if l := cfg.Limit(NamespaceCreate); l.MaxRequests != 5 || l.Window != 10*time.Second {
		t.Fatalf("unexpected override: %+v", l)
	}
}

func TestLoad_InvalidExpiryFallsBack(t *testing.T) {
	for _, v := range []string{"0", "-5", "abc"} {
		t.Setenv("POS_HANDOFF_EXPIRY_MINUTES", v)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.ExpiryMinutes != 60 {
			t.Fatalf("%q: expected fallback 60, got %d", v, cfg.ExpiryMinutes)
		}
	}
}

func TestLoad_BadRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_ANALYTICS_TRACK", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed rate limit")
	}
}

func TestParseStaffPINs_Malformed(t *testing.T) {
	if _, err := ParseStaffPINs("alice"); err == nil {
		t.Fatal("expected error")
	}
	pins, err := ParseStaffPINs("")
	if err != nil || len(pins) != 0 {
		t.Fatalf("expected empty map, got %v %v", pins, err)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreBackend: BackendPostgres, AllowedStoreIDs: []string{"riverside"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected postgres without DATABASE_URL to fail")
	}
	cfg = &Config{StoreBackend: "mongo", AllowedStoreIDs: []string{"riverside"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown backend to fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("POS_HANDOFF_EXPIRY_MINUTES=25\nADDR=:9090\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("POS_HANDOFF_EXPIRY_MINUTES", "")
	os.Unsetenv("POS_HANDOFF_EXPIRY_MINUTES")
	t.Setenv("ADDR", ":7070")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ExpiryMinutes != 25 {
		t.Fatalf("expiry = %d, want value from file", cfg.ExpiryMinutes)
	}
	if cfg.Address != ":7070" {
		t.Fatalf("address = %s, environment should win", cfg.Address)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
