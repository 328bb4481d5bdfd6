package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/pixeldraft/internal/typeid"
)

var ErrNoSnapshot = errors.New("no snapshot")

// Snapshot is one saved version of the scene document.
type Snapshot struct {
	ID        string          `db:"id" json:"id"`
	Version   int32           `db:"version" json:"version"`
	Shapes    int32           `db:"shapes" json:"shapes"`
	Document  json.RawMessage `db:"document" json:"document,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

type SnapshotStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

const insertSnapshot = `
INSERT INTO scene_snapshots (id, version, shapes, document)
SELECT $1::text, COALESCE(MAX(version), 0) + 1, $2::integer, $3::jsonb FROM scene_snapshots
RETURNING id, version, shapes, document, created_at`

// Save stores doc as the next version. Two writers racing for the same
// version retry once.
func (s *SnapshotStore) Save(ctx context.Context, doc []byte, shapes int) (Snapshot, error) {
	var snap Snapshot
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		rows, qerr := s.pool.Query(ctx, insertSnapshot, typeid.NewSnapshotID(), shapes, doc)
		if qerr != nil {
			return Snapshot{}, fmt.Errorf("create snapshot: %w", qerr)
		}
		snap, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Snapshot])
		if err == nil || !isDuplicateKeyError(err) {
			break
		}
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	return snap, nil
}

// Latest returns the highest version.
func (s *SnapshotStore) Latest(ctx context.Context) (Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, version, shapes, document, created_at
FROM scene_snapshots ORDER BY version DESC LIMIT 1`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snap, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Snapshot])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// List returns up to limit snapshots, newest first, without documents.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, version, shapes, NULL::jsonb AS document, created_at
FROM scene_snapshots ORDER BY version DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	snaps, err := pgx.CollectRows(rows, pgx.RowToStructByName[Snapshot])
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
