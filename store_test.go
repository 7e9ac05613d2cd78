package meshsim

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileCheckpointStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileCheckpointStore(t.TempDir())
	require.NoError(t, err)

	t.Run("empty store", func(t *testing.T) {
		checkpoint, err := store.LatestCheckpoint(ctx, "run_missing")
		require.NoError(t, err)
		require.Nil(t, checkpoint)
	})

	t.Run("save load latest", func(t *testing.T) {
		for _, ts := range []int{5, 10} {
			err := store.SaveCheckpoint(ctx, &Checkpoint{
				RunID:     "run_a",
				Timestep:  ts,
				SimTime:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(ts) * time.Hour),
				State:     map[string]json.RawMessage{"snowpack": json.RawMessage(`{"swe":12.5}`)},
				CreatedAt: time.Now().UTC(),
			})
			require.NoError(t, err)
		}

		checkpoint, err := store.LoadCheckpoint(ctx, "run_a", 5)
		require.NoError(t, err)
		require.NotNil(t, checkpoint)
		require.Equal(t, 5, checkpoint.Timestep)
		require.JSONEq(t, `{"swe":12.5}`, string(checkpoint.State["snowpack"]))

		latest, err := store.LatestCheckpoint(ctx, "run_a")
		require.NoError(t, err)
		require.NotNil(t, latest)
		require.Equal(t, 10, latest.Timestep)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteCheckpoints(ctx, "run_a"))
		checkpoint, err := store.LatestCheckpoint(ctx, "run_a")
		require.NoError(t, err)
		require.Nil(t, checkpoint)
	})
}

func TestFileCheckpointStoreRequiresDir(t *testing.T) {
	_, err := NewFileCheckpointStore("")
	require.Error(t, err)
}

func TestNullCheckpointStore(t *testing.T) {
	ctx := context.Background()
	store := NewNullCheckpointStore()

	require.NoError(t, store.SaveCheckpoint(ctx, &Checkpoint{RunID: "x", Timestep: 1}))
	checkpoint, err := store.LatestCheckpoint(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, checkpoint)
	require.NoError(t, store.DeleteCheckpoints(ctx, "x"))
}

func TestPostgresCheckpointStore(t *testing.T) {
	dsn := os.Getenv("MESHSIM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MESHSIM_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := OpenPostgres(dsn)
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresCheckpointStore(db)
	require.NoError(t, store.Init(ctx))

	runID := NewRunID()
	defer store.DeleteCheckpoints(ctx, runID)

	err = store.SaveCheckpoint(ctx, &Checkpoint{
		RunID:     runID,
		Timestep:  3,
		SimTime:   time.Now().UTC().Truncate(time.Second),
		State:     map[string]json.RawMessage{"runoff": json.RawMessage(`{"q":0.4}`)},
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	// Upsert on the same timestep replaces the row.
	err = store.SaveCheckpoint(ctx, &Checkpoint{RunID: runID, Timestep: 3, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	latest, err := store.LatestCheckpoint(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, 3, latest.Timestep)

	missing, err := store.LoadCheckpoint(ctx, runID, 99)
	require.NoError(t, err)
	require.Nil(t, missing)
}
