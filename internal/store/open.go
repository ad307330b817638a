package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/imrishuroy/pos-handoff/internal/aws"
	"github.com/imrishuroy/pos-handoff/internal/config"
	"github.com/imrishuroy/pos-handoff/internal/handoff"
)

// Open builds the handoff store selected by cfg.StoreBackend. The SQLite
// schema is created on open; Postgres expects `handoffctl migrate` to have
// run. clients is only used by the DynamoDB backend.
func Open(ctx context.Context, cfg *config.Config, clients *aws.AWSClients) (handoff.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		if clients == nil {
			return nil, nil, errors.New("dynamodb backend needs aws clients")
		}
		return NewDynamo(clients.DynamoDB, cfg.HandoffTable, cfg.CodesTable), func() {}, nil

	case config.BackendPostgres:
		pool, err := ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgres(pool), pool.Close, nil

	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s := NewSQLite(db)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Migrate creates the schema for the configured SQL backend.
func Migrate(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return NewPostgres(pool).EnsureSchema(ctx)

	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		return NewSQLite(db).EnsureSchema(ctx)

	default:
		return fmt.Errorf("migrate: backend %q has no SQL schema", cfg.StoreBackend)
	}
}
