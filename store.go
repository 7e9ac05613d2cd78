package meshsim

import (
	"context"
	"encoding/json"
	"time"
)

// Checkpoint is a restartable snapshot of a worker's run state at one
// timestep. State holds opaque per-module blobs; this package never
// interprets them.
type Checkpoint struct {
	RunID     string                     `json:"run_id"`
	Timestep  int                        `json:"timestep"`
	SimTime   time.Time                  `json:"sim_time"`
	State     map[string]json.RawMessage `json:"state,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
}

// CheckpointStore persists checkpoints keyed by run id and timestep. Load
// and Latest return (nil, nil) when no checkpoint exists. A Save failure is
// fatal to the run: resuming from an unconfirmed checkpoint risks
// undetectable corruption.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error
	LoadCheckpoint(ctx context.Context, runID string, timestep int) (*Checkpoint, error)
	LatestCheckpoint(ctx context.Context, runID string) (*Checkpoint, error)
	DeleteCheckpoints(ctx context.Context, runID string) error
}
