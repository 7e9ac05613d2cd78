package meshsim

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresCheckpointStore persists checkpoints in a Postgres table keyed by
// (run_id, timestep). Useful when workers share a database rather than a
// filesystem.
type PostgresCheckpointStore struct {
	db *sql.DB
}

// OpenPostgres opens a Postgres connection with the pq driver.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return db, nil
}

// NewPostgresCheckpointStore wraps an existing database handle.
func NewPostgresCheckpointStore(db *sql.DB) *PostgresCheckpointStore {
	return &PostgresCheckpointStore{db: db}
}

// Init creates the checkpoint table if it does not exist.
func (s *PostgresCheckpointStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS meshsim_checkpoints (
			run_id     TEXT        NOT NULL,
			timestep   BIGINT      NOT NULL,
			data       JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (run_id, timestep)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint table: %w", err)
	}
	return nil
}

// SaveCheckpoint upserts the checkpoint row for its run and timestep.
func (s *PostgresCheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error {
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meshsim_checkpoints (run_id, timestep, data, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, timestep)
		DO UPDATE SET data = EXCLUDED.data, created_at = EXCLUDED.created_at`,
		checkpoint.RunID, checkpoint.Timestep, data, checkpoint.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads the checkpoint for a specific timestep. Returns
// (nil, nil) when none exists.
func (s *PostgresCheckpointStore) LoadCheckpoint(ctx context.Context, runID string, timestep int) (*Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT data FROM meshsim_checkpoints
		WHERE run_id = $1 AND timestep = $2`, runID, timestep)
	return scanCheckpoint(row)
}

// LatestCheckpoint reads the highest-timestep checkpoint for a run. Returns
// (nil, nil) when the run has no checkpoints.
func (s *PostgresCheckpointStore) LatestCheckpoint(ctx context.Context, runID string) (*Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT data FROM meshsim_checkpoints
		WHERE run_id = $1
		ORDER BY timestep DESC
		LIMIT 1`, runID)
	return scanCheckpoint(row)
}

// DeleteCheckpoints removes all checkpoint rows for a run.
func (s *PostgresCheckpointStore) DeleteCheckpoints(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM meshsim_checkpoints WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoints: %w", err)
	}
	return nil
}

func scanCheckpoint(row *sql.Row) (*Checkpoint, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}
