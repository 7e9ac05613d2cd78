package meshsim

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileCheckpointStore persists checkpoints to disk, one directory per run
// with numbered JSON files and a "latest.json" symlink to the most recent.
type FileCheckpointStore struct {
	dataDir string
}

// NewFileCheckpointStore creates a file-based checkpoint store rooted at
// dataDir, creating the directory if needed.
func NewFileCheckpointStore(dataDir string) (*FileCheckpointStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("checkpoint directory required")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory %s: %w", dataDir, err)
	}
	return &FileCheckpointStore{dataDir: dataDir}, nil
}

// SaveCheckpoint writes the checkpoint as JSON and repoints the latest link.
func (s *FileCheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error {
	runDir := filepath.Join(s.dataDir, checkpoint.RunID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	path := filepath.Join(runDir, s.fileName(checkpoint.Timestep))
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}

	latest := filepath.Join(runDir, "latest.json")
	if err := os.Remove(latest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace latest link: %w", err)
	}
	if err := os.Symlink(filepath.Base(path), latest); err != nil {
		return fmt.Errorf("failed to update latest link: %w", err)
	}
	return nil
}

// LoadCheckpoint reads the checkpoint for a specific timestep. Returns
// (nil, nil) when none exists.
func (s *FileCheckpointStore) LoadCheckpoint(ctx context.Context, runID string, timestep int) (*Checkpoint, error) {
	return s.read(filepath.Join(s.dataDir, runID, s.fileName(timestep)))
}

// LatestCheckpoint reads the most recently saved checkpoint for a run.
// Returns (nil, nil) when the run has no checkpoints.
func (s *FileCheckpointStore) LatestCheckpoint(ctx context.Context, runID string) (*Checkpoint, error) {
	return s.read(filepath.Join(s.dataDir, runID, "latest.json"))
}

// DeleteCheckpoints removes all checkpoint data for a run.
func (s *FileCheckpointStore) DeleteCheckpoints(ctx context.Context, runID string) error {
	if err := os.RemoveAll(filepath.Join(s.dataDir, runID)); err != nil {
		return fmt.Errorf("failed to delete run directory: %w", err)
	}
	return nil
}

func (s *FileCheckpointStore) fileName(timestep int) string {
	return fmt.Sprintf("checkpoint-%08d.json", timestep)
}

func (s *FileCheckpointStore) read(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}
