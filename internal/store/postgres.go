package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imrishuroy/pos-handoff/internal/handoff"
)

const pgUniqueViolation = "23505"

// Postgres stores handoffs in a PostgreSQL table.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pgx pool for dsn.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// NewPostgres returns a Postgres-backed handoff store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the handoff table if needed.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Insert(ctx context.Context, rec *handoff.Record) error {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO pos_handoffs (id, handoff_code, store_id, status, items, customer_session_id, source, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9)
	`, rec.ID, rec.Code, rec.StoreID, string(rec.Status), string(items),
		nullString(rec.CustomerSessionID), nullString(rec.Source), rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName != "pos_handoffs_pkey" {
			return handoff.ErrDuplicateCode
		}
		return fmt.Errorf("insert handoff: %w", err)
	}
	return nil
}

func (p *Postgres) FindByCodeAndStore(ctx context.Context, code, storeID string) (*handoff.Record, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM pos_handoffs WHERE handoff_code = $1 AND store_id = $2`, code, storeID)
	rec, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, handoff.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select handoff: %w", err)
	}
	return rec, nil
}

// ConditionalUpdate is a single UPDATE guarded by the expected status; the
// row lock taken by UPDATE serialises concurrent claimers.
func (p *Postgres) ConditionalUpdate(ctx context.Context, id string, expected handoff.Status, patch handoff.Patch) (*handoff.Record, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE pos_handoffs
		SET status = $1,
			claimed_at = COALESCE($2, claimed_at),
			claimed_by_staff_id = COALESCE($3, claimed_by_staff_id)
		WHERE id = $4 AND status = $5
		RETURNING `+selectColumns,
		string(patch.Status), patch.ClaimedAt, nullString(patch.ClaimedByStaffID), id, string(expected))
	rec, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, handoff.ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("update handoff: %w", err)
	}
	return rec, nil
}

func scanPostgres(row pgx.Row) (*handoff.Record, error) {
	var (
		rec       handoff.Record
		status    string
		items     []byte
		sessionID *string
		source    *string
		claimedBy *string
		claimedAt *time.Time
	)
	err := row.Scan(&rec.ID, &rec.Code, &rec.StoreID, &status, &items, &sessionID, &source,
		&rec.ExpiresAt, &claimedAt, &claimedBy, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = handoff.Status(status)
	if err := json.Unmarshal(items, &rec.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	rec.CustomerSessionID = deref(sessionID)
	rec.Source = deref(source)
	rec.ClaimedByStaffID = deref(claimedBy)
	if claimedAt != nil {
		t := claimedAt.UTC()
		rec.ClaimedAt = &t
	}
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
