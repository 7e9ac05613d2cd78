package meshsim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWallclock(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := ParseWallclock("02:30:00")
		require.NoError(t, err)
		require.Equal(t, 2*time.Hour+30*time.Minute, d)

		d, err = ParseWallclock("00:05")
		require.NoError(t, err)
		require.Equal(t, 5*time.Minute, d)

		d, err = ParseWallclock("100:00:30")
		require.NoError(t, err)
		require.Equal(t, 100*time.Hour+30*time.Second, d)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{"", "banana", "10", "1:2:3:4", "00:61:00", "00:00:99", "-1:00:00"} {
			_, err := ParseWallclock(s)
			require.Error(t, err, "expected %q to fail", s)
		}
	})
}

func TestDetectBudget(t *testing.T) {
	t.Run("no limit declared", func(t *testing.T) {
		budget, err := DetectBudget(MapEnvironment{}, nil)
		require.NoError(t, err)
		require.False(t, budget.HasLimit)
	})

	t.Run("limit declared", func(t *testing.T) {
		env := MapEnvironment{EnvWallclockLimit: "01:00:00"}
		budget, err := DetectBudget(env, nil)
		require.NoError(t, err)
		require.True(t, budget.HasLimit)
		require.Equal(t, time.Hour, budget.Limit)
		require.False(t, budget.Start.IsZero())
	})

	t.Run("malformed limit is fatal", func(t *testing.T) {
		env := MapEnvironment{EnvWallclockLimit: "not-a-duration"}
		_, err := DetectBudget(env, nil)
		require.Error(t, err)
		require.ErrorContains(t, err, EnvWallclockLimit)
	})
}

func TestBudgetRemaining(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	budget := Budget{Limit: 2 * time.Hour, HasLimit: true, Start: start}

	require.Equal(t, time.Hour, budget.Remaining(start.Add(time.Hour)))
	require.Equal(t, -10*time.Minute, budget.Remaining(start.Add(2*time.Hour+10*time.Minute)))
}

func TestDetectBatchJob(t *testing.T) {
	t.Run("slurm", func(t *testing.T) {
		job, ok := DetectBatchJob(MapEnvironment{"SLURM_JOB_ID": "12345"}, nil)
		require.True(t, ok)
		require.Equal(t, BatchJob{Scheduler: "slurm", JobID: "12345"}, job)
	})

	t.Run("pbs", func(t *testing.T) {
		job, ok := DetectBatchJob(MapEnvironment{"PBS_JOBID": "99.head"}, nil)
		require.True(t, ok)
		require.Equal(t, "pbs", job.Scheduler)
	})

	t.Run("none", func(t *testing.T) {
		_, ok := DetectBatchJob(MapEnvironment{}, nil)
		require.False(t, ok)
	})
}
