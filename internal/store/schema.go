package store

// postgresSchema creates the handoff table. handoff_code is globally unique.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS pos_handoffs (
	id                  TEXT PRIMARY KEY,
	handoff_code        TEXT NOT NULL,
	store_id            TEXT NOT NULL,
	status              TEXT NOT NULL CHECK (status IN ('open', 'claimed', 'expired')),
	items               JSONB NOT NULL,
	customer_session_id TEXT,
	source              TEXT,
	expires_at          TIMESTAMPTZ NOT NULL,
	claimed_at          TIMESTAMPTZ,
	claimed_by_staff_id TEXT,
	created_at          TIMESTAMPTZ NOT NULL,
	CONSTRAINT pos_handoffs_handoff_code_key UNIQUE (handoff_code)
);
CREATE INDEX IF NOT EXISTS idx_pos_handoffs_store_code ON pos_handoffs(store_id, handoff_code);`

// sqliteSchema mirrors postgresSchema. Timestamps are unix milliseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pos_handoffs (
    id                  TEXT PRIMARY KEY,
    handoff_code        TEXT NOT NULL UNIQUE,
    store_id            TEXT NOT NULL,
    status              TEXT NOT NULL CHECK (status IN ('open', 'claimed', 'expired')),
    items               TEXT NOT NULL,
    customer_session_id TEXT,
    source              TEXT,
    expires_at          INTEGER NOT NULL,
    claimed_at          INTEGER,
    claimed_by_staff_id TEXT,
    created_at          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pos_handoffs_store_code ON pos_handoffs(store_id, handoff_code);
`

const selectColumns = `id, handoff_code, store_id, status, items, customer_session_id, source, expires_at, claimed_at, claimed_by_staff_id, created_at`
