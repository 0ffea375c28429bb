// Package store archives snapshot history points in Postgres.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Rate snapshots ---

// InsertRateSnapshot stores p for protocol. It reports false when a point
// with the same id was already archived.
func (s *Store) InsertRateSnapshot(ctx context.Context, protocol string, p yield.Point) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO rate_snapshots (protocol, id, ts, rate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (protocol, id) DO NOTHING`,
		protocol, p.ID, p.Timestamp, p.Rate)
	if err != nil {
		return false, fmt.Errorf("insert rate snapshot %s/%s: %w", protocol, p.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertRateSnapshots archives a whole history in one transaction and
// returns how many points were new.
func (s *Store) InsertRateSnapshots(ctx context.Context, protocol string, points []yield.Point) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	inserted := 0
	for _, p := range points {
		tag, err := tx.Exec(ctx, `
			INSERT INTO rate_snapshots (protocol, id, ts, rate)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (protocol, id) DO NOTHING`,
			protocol, p.ID, p.Timestamp, p.Rate)
		if err != nil {
			return 0, fmt.Errorf("insert rate snapshot %s/%s: %w", protocol, p.ID, err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListRateSnapshots returns protocol's points newer than since, oldest
// first. A zero since returns everything.
func (s *Store) ListRateSnapshots(ctx context.Context, protocol string, since time.Time) ([]yield.Point, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, ts, rate FROM rate_snapshots
		WHERE protocol = $1 AND ts >= $2
		ORDER BY ts`, protocol, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []yield.Point
	for rows.Next() {
		var p yield.Point
		if err := rows.Scan(&p.ID, &p.Timestamp, &p.Rate); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// CountRateSnapshots returns how many points are archived for protocol.
func (s *Store) CountRateSnapshots(ctx context.Context, protocol string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM rate_snapshots WHERE protocol = $1`, protocol).Scan(&count)
	return count, err
}

// CleanupOldRateSnapshots deletes points older than maxAge.
func (s *Store) CleanupOldRateSnapshots(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM rate_snapshots WHERE ts < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
