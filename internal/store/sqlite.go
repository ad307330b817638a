package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/imrishuroy/pos-handoff/internal/handoff"
)

// OpenSQLite opens a SQLite database with WAL and a busy timeout applied to
// every pooled connection. SQLite has a single writer, so the pool is capped
// at one connection.
func OpenSQLite(path string) (*sql.DB, error) {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "synchronous(NORMAL)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// SQLite stores handoffs in a SQLite table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite returns a SQLite-backed handoff store.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// DB returns the underlying database handle.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the handoff table if needed.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *SQLite) Insert(ctx context.Context, rec *handoff.Record) error {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pos_handoffs (id, handoff_code, store_id, status, items, customer_session_id, source, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Code, rec.StoreID, string(rec.Status), string(items),
		nullString(rec.CustomerSessionID), nullString(rec.Source),
		rec.ExpiresAt.UnixMilli(), rec.CreatedAt.UnixMilli())
	if err != nil {
		if isDuplicateCode(err) {
			return handoff.ErrDuplicateCode
		}
		return fmt.Errorf("insert handoff: %w", err)
	}
	return nil
}

func (s *SQLite) FindByCodeAndStore(ctx context.Context, code, storeID string) (*handoff.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM pos_handoffs WHERE handoff_code = ? AND store_id = ?`, code, storeID)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, handoff.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select handoff: %w", err)
	}
	return rec, nil
}

// ConditionalUpdate is a single UPDATE guarded by the expected status.
func (s *SQLite) ConditionalUpdate(ctx context.Context, id string, expected handoff.Status, patch handoff.Patch) (*handoff.Record, error) {
	var claimedAt any
	if patch.ClaimedAt != nil {
		claimedAt = patch.ClaimedAt.UnixMilli()
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE pos_handoffs
		SET status = ?,
			claimed_at = COALESCE(?, claimed_at),
			claimed_by_staff_id = COALESCE(?, claimed_by_staff_id)
		WHERE id = ? AND status = ?
		RETURNING `+selectColumns,
		string(patch.Status), claimedAt, nullString(patch.ClaimedByStaffID), id, string(expected))
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, handoff.ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("update handoff: %w", err)
	}
	return rec, nil
}

// isDuplicateCode reports a unique violation on handoff_code. A primary key
// collision on id is a different failure and is not retried.
func isDuplicateCode(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(serr.Error(), "pos_handoffs.handoff_code")
	}
	return false
}

func scanSQLite(row *sql.Row) (*handoff.Record, error) {
	var (
		rec       handoff.Record
		status    string
		items     string
		sessionID sql.NullString
		source    sql.NullString
		claimedBy sql.NullString
		expiresAt int64
		claimedAt sql.NullInt64
		createdAt int64
	)
	err := row.Scan(&rec.ID, &rec.Code, &rec.StoreID, &status, &items, &sessionID, &source,
		&expiresAt, &claimedAt, &claimedBy, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Status = handoff.Status(status)
	if err := json.Unmarshal([]byte(items), &rec.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	rec.CustomerSessionID = sessionID.String
	rec.Source = source.String
	rec.ClaimedByStaffID = claimedBy.String
	rec.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	if claimedAt.Valid {
		t := time.UnixMilli(claimedAt.Int64).UTC()
		rec.ClaimedAt = &t
	}
	return &rec, nil
}
