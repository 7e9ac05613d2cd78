package meshsim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSingleProcessConsensus(t *testing.T) {
	ctx := context.Background()

	result, err := SingleProcess{}.AgreeAny(ctx, true)
	require.NoError(t, err)
	require.True(t, result)

	result, err = SingleProcess{}.AgreeAny(ctx, false)
	require.NoError(t, err)
	require.False(t, result)
}

func TestLocalGroupSize(t *testing.T) {
	_, err := NewLocalGroup(0)
	require.Error(t, err)

	group, err := NewLocalGroup(3)
	require.NoError(t, err)
	require.Equal(t, 3, group.Size())
}

func agreeAll(t *testing.T, group *LocalGroup, votes []bool) []bool {
	t.Helper()
	results := make([]bool, len(votes))
	var wg sync.WaitGroup
	for i, vote := range votes {
		wg.Add(1)
		go func(i int, vote bool) {
			defer wg.Done()
			result, err := group.AgreeAny(context.Background(), vote)
			require.NoError(t, err)
			results[i] = result
		}(i, vote)
	}
	wg.Wait()
	return results
}

func TestLocalGroupAgreeAny(t *testing.T) {
	group, err := NewLocalGroup(3)
	require.NoError(t, err)

	t.Run("all false", func(t *testing.T) {
		for _, result := range agreeAll(t, group, []bool{false, false, false}) {
			require.False(t, result)
		}
	})

	t.Run("one true reaches everyone", func(t *testing.T) {
		for _, result := range agreeAll(t, group, []bool{false, true, false}) {
			require.True(t, result)
		}
	})

	t.Run("state resets between rounds", func(t *testing.T) {
		for _, result := range agreeAll(t, group, []bool{false, false, false}) {
			require.False(t, result)
		}
	})
}

func TestLocalGroupContextCancellation(t *testing.T) {
	group, err := NewLocalGroup(2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Only one of two participants votes; the round cannot complete.
	_, err = group.AgreeAny(ctx, true)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
