package meshsim

import "context"

// NullCheckpointStore is a no-op implementation
type NullCheckpointStore struct{}

func NewNullCheckpointStore() *NullCheckpointStore {
	return &NullCheckpointStore{}
}

func (s *NullCheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error {
	return nil
}

func (s *NullCheckpointStore) LoadCheckpoint(ctx context.Context, runID string, timestep int) (*Checkpoint, error) {
	return nil, nil
}

func (s *NullCheckpointStore) LatestCheckpoint(ctx context.Context, runID string) (*Checkpoint, error) {
	return nil, nil
}

func (s *NullCheckpointStore) DeleteCheckpoints(ctx context.Context, runID string) error {
	return nil
}
