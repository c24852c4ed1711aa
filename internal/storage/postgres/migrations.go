package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema mirrors the SQLite layout. Amounts are TEXT so decimals survive
// the round trip without a NUMERIC codec.
const schema = `
CREATE TABLE IF NOT EXISTS receipts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    image_url TEXT NOT NULL,
    raw_text TEXT NOT NULL DEFAULT '',
    merchant_name TEXT NOT NULL DEFAULT '',
    receipt_date BIGINT NOT NULL DEFAULT 0,
    total TEXT NOT NULL DEFAULT '0',
    tax TEXT NOT NULL DEFAULT '0',
    service_charge TEXT NOT NULL DEFAULT '0',
    discount TEXT NOT NULL DEFAULT '0',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    receipt_id TEXT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    price TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    PRIMARY KEY (receipt_id, position)
);

CREATE TABLE IF NOT EXISTS participants (
    receipt_id TEXT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    participant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (receipt_id, position)
);

CREATE TABLE IF NOT EXISTS assignment_occurrences (
    receipt_id TEXT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
    entry INTEGER NOT NULL,
    slot INTEGER NOT NULL,
    item_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    PRIMARY KEY (receipt_id, entry, slot)
);

CREATE INDEX IF NOT EXISTS idx_receipts_user_created ON receipts(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_receipts_created ON receipts(created_at);
`

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
