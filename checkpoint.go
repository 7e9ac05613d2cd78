package meshsim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DefaultAbortMargin is how much wallclock to leave for writing an
// out-of-time checkpoint before the batch scheduler kills the job.
const DefaultAbortMargin = 2 * time.Minute

// Policy controls when checkpoints are written. Optional fields use
// "absent = disabled" semantics and combine by OR; the policy is fixed at
// configuration time and read-only during the run.
type Policy struct {
	// Enabled gates all checkpointing. When false no trigger fires.
	Enabled bool

	// OnLastTimestep checkpoints on the final timestep, unconditionally.
	OnLastTimestep *bool

	// Frequency checkpoints every N timesteps, never at timestep 0.
	Frequency *int

	// OnOutOfTime checkpoints when any worker in the group is within
	// AbortMargin of its wallclock limit.
	OnOutOfTime *bool

	// AbortMargin is how close to the limit counts as out of time.
	// Zero means DefaultAbortMargin.
	AbortMargin time.Duration
}

// Validate reports every policy misconfiguration, joined.
func (p Policy) Validate() error {
	var problems []error
	if p.AbortMargin < 0 {
		problems = append(problems, fmt.Errorf("abort margin must not be negative, got %s", p.AbortMargin))
	}
	if p.Frequency != nil && *p.Frequency <= 0 {
		problems = append(problems, fmt.Errorf("checkpoint frequency must be positive, got %d", *p.Frequency))
	}
	return errors.Join(problems...)
}

// CoordinatorOptions configures a checkpoint Coordinator.
type CoordinatorOptions struct {
	Policy    Policy
	Budget    Budget
	Consensus ConsensusChannel
	Logger    *slog.Logger
}

// Coordinator decides, once per timestep on every worker, whether restartable
// state should be persisted. All workers must call ShouldCheckpoint with the
// same timestep arguments; the out-of-time path is a collective operation and
// its group-wide result is what every worker acts on, so all partitions of
// the simulation state are captured at a consistent timestep.
type Coordinator struct {
	policy    Policy
	budget    Budget
	consensus ConsensusChannel
	logger    *slog.Logger

	// Set at most once, by the out-of-time path. Read-only for the driver.
	terminateRequested bool
}

// NewCoordinator validates the policy and returns a Coordinator. A nil
// Consensus defaults to SingleProcess.
func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid checkpoint policy: %w", err)
	}
	if opts.Policy.AbortMargin == 0 {
		opts.Policy.AbortMargin = DefaultAbortMargin
	}
	if opts.Consensus == nil {
		opts.Consensus = SingleProcess{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		policy:    opts.Policy,
		budget:    opts.Budget,
		consensus: opts.Consensus,
		logger:    opts.Logger,
	}, nil
}

// ShouldCheckpoint evaluates the policy for the given timestep. Triggers
// combine by OR:
//
//   - on-last-timestep, when this is the final timestep
//   - frequency, excluding timestep 0
//   - out of time: the local "remaining <= margin" flag is reduced across
//     the process group with a logical OR, and the group result decides for
//     every worker. That path also requests cooperative termination, exactly
//     once, so the driver stops after the checkpoint write completes.
//
// A consensus failure is fatal; no retry is attempted.
func (c *Coordinator) ShouldCheckpoint(ctx context.Context, currentTS int, isLast bool, now time.Time) (bool, error) {
	if !c.policy.Enabled {
		return false, nil
	}

	if c.policy.OnLastTimestep != nil && *c.policy.OnLastTimestep && isLast {
		return true, nil
	}

	if c.policy.Frequency != nil && currentTS != 0 && currentTS%*c.policy.Frequency == 0 {
		return true, nil
	}

	if c.policy.OnOutOfTime != nil && *c.policy.OnOutOfTime && c.budget.HasLimit {
		local := c.budget.Remaining(now) <= c.policy.AbortMargin
		global, err := c.consensus.AgreeAny(ctx, local)
		if err != nil {
			return false, fmt.Errorf("out-of-time consensus failed at timestep %d: %w", currentTS, err)
		}
		if global {
			if !c.terminateRequested {
				c.terminateRequested = true
				c.logger.Debug("wallclock nearly exhausted, checkpointing and requesting termination",
					"timestep", currentTS,
					"remaining", c.budget.Remaining(now).String())
			}
			return true, nil
		}
	}

	return false, nil
}

// TerminateRequested reports whether an out-of-time checkpoint has asked the
// driver to end the run after the checkpoint write completes.
func (c *Coordinator) TerminateRequested() bool {
	return c.terminateRequested
}
