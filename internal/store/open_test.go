package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/imrishuroy/pos-handoff/internal/config"
)

func TestOpenSQLiteBackend(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "h.db")}
	s, closeFn, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closeFn()
	if err := s.Insert(context.Background(), newRecord("id-1", "ABC234", "riverside")); err != nil {
		t.Fatalf("Insert through opened store: %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	if _, _, err := Open(ctx, &config.Config{StoreBackend: config.BackendDynamoDB}, nil); err == nil {
		t.Fatal("dynamodb without clients should fail")
	}
	if _, _, err := Open(ctx, &config.Config{StoreBackend: "mongo"}, nil); err == nil {
		t.Fatal("unknown backend should fail")
	}
	if err := Migrate(ctx, &config.Config{StoreBackend: config.BackendDynamoDB}); err == nil {
		t.Fatal("migrate on dynamodb should fail")
	}
}

func TestMigrateSQLite(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "h.db")}
	if err := Migrate(context.Background(), cfg); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := Migrate(context.Background(), cfg); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
