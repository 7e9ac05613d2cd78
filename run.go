package meshsim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.jetify.com/typeid"
)

// NewRunID returns a new unique run identifier.
func NewRunID() string {
	id, err := typeid.WithPrefix("run")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// Engine executes the domain modules for this worker's partition of the
// spatial domain. The numerical work inside modules is entirely the engine's
// concern; the driver only supplies the schedule.
type Engine interface {
	// ExecuteChunk runs every named module once for the given timestep.
	// Modules within a chunk carry no ordering guarantee and may run in
	// parallel. The driver never starts the next chunk before this returns.
	ExecuteChunk(ctx context.Context, timestep int, simTime time.Time, modules []string) error

	// Snapshot captures restartable per-module state at the given timestep.
	Snapshot(ctx context.Context, timestep int) (map[string]json.RawMessage, error)

	// Restore rehydrates module state from a checkpoint before the loop
	// resumes.
	Restore(ctx context.Context, checkpoint *Checkpoint) error
}

// OutputWriter receives positive output decisions. It owns file formats,
// naming, and any last-written bookkeeping.
type OutputWriter interface {
	WriteOutput(ctx context.Context, output *OutputDescriptor, timestep int, simTime time.Time) error
}

type nullOutputWriter struct{}

func (nullOutputWriter) WriteOutput(ctx context.Context, output *OutputDescriptor, timestep int, simTime time.Time) error {
	return nil
}

// DriverOptions configures a run Driver.
type DriverOptions struct {
	Graph       *Graph
	Chunks      []Chunk
	Engine      Engine
	Coordinator *Coordinator
	Store       CheckpointStore
	Writer      OutputWriter
	Outputs     []*OutputDescriptor
	Logger      *slog.Logger

	// RunID identifies this run in the checkpoint store. Generated when
	// empty.
	RunID string

	// Timesteps is the total number of timesteps; the last timestep index
	// is Timesteps-1.
	Timesteps int

	// StartTime is the simulation time of timestep 0; StepSize advances it
	// each timestep.
	StartTime time.Time
	StepSize  time.Duration

	// Resume loads the latest checkpoint for RunID and continues from the
	// following timestep.
	Resume bool

	// CleanExitFile, when set, is written after a run ends without error.
	CleanExitFile string

	// Now is the wallclock source consulted for checkpoint decisions.
	// Defaults to time.Now.
	Now func() time.Time
}

// Driver owns the timestep loop of one worker: execute the scheduled chunks,
// evaluate output triggers, consult the checkpoint coordinator, persist
// state, and stop cooperatively when termination is requested.
type Driver struct {
	graph         *Graph
	chunks        []Chunk
	engine        Engine
	coordinator   *Coordinator
	store         CheckpointStore
	writer        OutputWriter
	outputs       []*OutputDescriptor
	logger        *slog.Logger
	runID         string
	timesteps     int
	startTime     time.Time
	stepSize      time.Duration
	resume        bool
	cleanExitFile string
	now           func() time.Time
}

// NewDriver validates the options and returns a Driver.
func NewDriver(opts DriverOptions) (*Driver, error) {
	if opts.Graph == nil {
		return nil, fmt.Errorf("graph is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if opts.Timesteps <= 0 {
		return nil, fmt.Errorf("timesteps must be positive, got %d", opts.Timesteps)
	}
	if opts.Coordinator == nil {
		coordinator, err := NewCoordinator(CoordinatorOptions{})
		if err != nil {
			return nil, err
		}
		opts.Coordinator = coordinator
	}
	if opts.Store == nil {
		opts.Store = NewNullCheckpointStore()
	}
	if opts.Writer == nil {
		opts.Writer = nullOutputWriter{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Driver{
		graph:         opts.Graph,
		chunks:        opts.Chunks,
		engine:        opts.Engine,
		coordinator:   opts.Coordinator,
		store:         opts.Store,
		writer:        opts.Writer,
		outputs:       opts.Outputs,
		logger:        opts.Logger,
		runID:         opts.RunID,
		timesteps:     opts.Timesteps,
		startTime:     opts.StartTime,
		stepSize:      opts.StepSize,
		resume:        opts.Resume,
		cleanExitFile: opts.CleanExitFile,
		now:           opts.Now,
	}, nil
}

// RunID returns the identifier used in the checkpoint store.
func (d *Driver) RunID() string {
	return d.runID
}

// Run executes the timestep loop until completion, a fatal error, or a
// cooperative out-of-time termination. Errors from the engine, the output
// writer, the checkpoint store, and the consensus channel are all fatal.
func (d *Driver) Run(ctx context.Context) error {
	startTS := 0
	if d.resume {
		checkpoint, err := d.store.LatestCheckpoint(ctx, d.runID)
		if err != nil {
			return fmt.Errorf("failed to load latest checkpoint: %w", err)
		}
		if checkpoint != nil {
			if err := d.engine.Restore(ctx, checkpoint); err != nil {
				return fmt.Errorf("failed to restore from checkpoint at timestep %d: %w", checkpoint.Timestep, err)
			}
			startTS = checkpoint.Timestep + 1
			d.logger.Info("resuming from checkpoint",
				"run_id", d.runID, "timestep", checkpoint.Timestep)
		}
	}

	maxTS := d.timesteps - 1
	for ts := startTS; ts < d.timesteps; ts++ {
		simTime := d.startTime.Add(time.Duration(ts) * d.stepSize)

		for i, chunk := range d.chunks {
			if err := d.engine.ExecuteChunk(ctx, ts, simTime, d.graph.Names(chunk)); err != nil {
				return fmt.Errorf("chunk %d failed at timestep %d: %w", i, ts, err)
			}
		}

		for _, output := range d.outputs {
			if output.ShouldOutput(maxTS, ts, simTime) {
				if err := d.writer.WriteOutput(ctx, output, ts, simTime); err != nil {
					return fmt.Errorf("output %q failed at timestep %d: %w", output.Name, ts, err)
				}
			}
		}

		write, err := d.coordinator.ShouldCheckpoint(ctx, ts, ts == maxTS, d.now())
		if err != nil {
			return err
		}
		if write {
			if err := d.writeCheckpoint(ctx, ts, simTime); err != nil {
				return err
			}
		}

		if d.coordinator.TerminateRequested() {
			d.logger.Info("terminating after out-of-time checkpoint",
				"run_id", d.runID, "timestep", ts)
			break
		}
	}

	if d.cleanExitFile != "" {
		if err := os.WriteFile(d.cleanExitFile, []byte(d.runID+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write clean exit file: %w", err)
		}
	}
	return nil
}

func (d *Driver) writeCheckpoint(ctx context.Context, ts int, simTime time.Time) error {
	state, err := d.engine.Snapshot(ctx, ts)
	if err != nil {
		return fmt.Errorf("failed to snapshot state at timestep %d: %w", ts, err)
	}
	checkpoint := &Checkpoint{
		RunID:     d.runID,
		Timestep:  ts,
		SimTime:   simTime,
		State:     state,
		CreatedAt: d.now(),
	}
	if err := d.store.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("checkpoint write failed at timestep %d: %w", ts, err)
	}
	d.logger.Info("checkpoint written", "run_id", d.runID, "timestep", ts)
	return nil
}
