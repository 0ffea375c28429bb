package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS rate_snapshots (
    protocol TEXT NOT NULL,
    id TEXT NOT NULL,
    ts TIMESTAMPTZ NOT NULL,
    rate DOUBLE PRECISION NOT NULL CHECK (rate > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (protocol, id)
);

CREATE INDEX IF NOT EXISTS idx_rate_snapshots_protocol_ts ON rate_snapshots (protocol, ts);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
