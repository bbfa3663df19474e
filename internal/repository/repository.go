// Package repository stores persisted booking state in PostgreSQL.
// It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no snapshot has been saved yet.
var ErrNotFound = errors.New("not found")

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Snapshot is one saved copy of the service state.
type Snapshot struct {
	ID            int64
	FormatVersion int
	State         []byte
	CreatedAt     time.Time
}

// SnapshotRepository handles persistence for service snapshots.
type SnapshotRepository struct {
	db DB
}

// NewSnapshotRepository constructs a SnapshotRepository.
func NewSnapshotRepository(db DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save appends a snapshot and returns its id.
func (r *SnapshotRepository) Save(ctx context.Context, formatVersion int, state []byte) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO service_snapshots (format_version, state, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		formatVersion, state, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recently saved snapshot or ErrNotFound.
func (r *SnapshotRepository) Latest(ctx context.Context) (*Snapshot, error) {
	var s Snapshot
	err := r.db.QueryRow(ctx,
		`SELECT id, format_version, state, created_at
		 FROM service_snapshots
		 ORDER BY id DESC
		 LIMIT 1`,
	).Scan(&s.ID, &s.FormatVersion, &s.State, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return &s, nil
}

// Prune deletes all but the newest keep snapshots and reports how many rows
// were removed.
func (r *SnapshotRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("prune snapshots: keep must be at least 1, got %d", keep)
	}
	tag, err := r.db.Exec(ctx,
		`DELETE FROM service_snapshots
		 WHERE id NOT IN (SELECT id FROM service_snapshots ORDER BY id DESC LIMIT $1)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
