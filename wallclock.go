package meshsim

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvWallclockLimit holds the batch-scheduler style wallclock limit, e.g.
// "02:30:00". Unset means no limit; a malformed value is a fatal
// configuration error.
const EnvWallclockLimit = "MESHSIM_WALLCLOCK_LIMIT"

// Environment supplies process environment lookups. The OS-backed default is
// OSEnvironment; tests inject a MapEnvironment with synthetic values.
type Environment interface {
	Getenv(key string) string
}

// OSEnvironment reads the real process environment.
type OSEnvironment struct{}

func (OSEnvironment) Getenv(key string) string {
	return os.Getenv(key)
}

// MapEnvironment is an Environment backed by a fixed map. Missing keys
// resolve to the empty string, matching os.Getenv.
type MapEnvironment map[string]string

func (m MapEnvironment) Getenv(key string) string {
	return m[key]
}

// Budget tracks elapsed run time against an externally imposed wallclock
// limit. Remaining is meaningful only when HasLimit is set.
type Budget struct {
	Limit    time.Duration
	HasLimit bool
	Start    time.Time
}

// Remaining returns how much of the budget is left at the given instant.
func (b Budget) Remaining(now time.Time) time.Duration {
	return b.Limit - now.Sub(b.Start)
}

// BatchJob identifies the surrounding batch scheduler, for diagnostics only.
type BatchJob struct {
	Scheduler string
	JobID     string
}

// DetectBatchJob checks for SLURM and PBS job environments. The result is
// informational and never feeds control decisions.
func DetectBatchJob(env Environment, logger *slog.Logger) (BatchJob, bool) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if jobID := env.Getenv("SLURM_JOB_ID"); jobID != "" {
		logger.Debug("detected SLURM job",
			"job_id", jobID,
			"task_pid", env.Getenv("SLURM_TASK_PID"),
			"proc_id", env.Getenv("SLURM_PROCID"))
		return BatchJob{Scheduler: "slurm", JobID: jobID}, true
	}
	if jobID := env.Getenv("PBS_JOBID"); jobID != "" {
		logger.Debug("detected PBS job", "job_id", jobID)
		return BatchJob{Scheduler: "pbs", JobID: jobID}, true
	}
	return BatchJob{}, false
}

// DetectBudget reads the wallclock limit from the environment and starts the
// elapsed-time clock. An absent limit yields a Budget with HasLimit false.
func DetectBudget(env Environment, logger *slog.Logger) (Budget, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	raw := env.Getenv(EnvWallclockLimit)
	if raw == "" {
		return Budget{}, nil
	}
	limit, err := ParseWallclock(raw)
	if err != nil {
		return Budget{}, fmt.Errorf("invalid %s value %q: %w", EnvWallclockLimit, raw, err)
	}
	logger.Debug("detected wallclock limit", "limit", limit.String())
	return Budget{Limit: limit, HasLimit: true, Start: time.Now()}, nil
}

// ParseWallclock parses a batch-scheduler duration of the form "HH:MM:SS" or
// "HH:MM". Minutes and seconds must be below 60; hours are unbounded.
func ParseWallclock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("expected HH:MM:SS or HH:MM, got %q", s)
	}
	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid duration component %q", p)
		}
		if i > 0 && v > 59 {
			return 0, fmt.Errorf("duration component %q out of range", p)
		}
		values[i] = v
	}
	d := time.Duration(values[0])*time.Hour + time.Duration(values[1])*time.Minute
	if len(values) == 3 {
		d += time.Duration(values[2]) * time.Second
	}
	return d, nil
}
