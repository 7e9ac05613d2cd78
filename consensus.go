package meshsim

import (
	"context"
	"fmt"
	"sync"
)

// ConsensusChannel is the collective agreement primitive shared by every
// worker in a process group: a logical-OR reduction over one boolean vote
// per worker. AgreeAny blocks until the group result is available, so no
// worker proceeds past the decision before the others.
type ConsensusChannel interface {
	AgreeAny(ctx context.Context, local bool) (bool, error)
}

// SingleProcess is the ConsensusChannel for a group of one: the local vote
// is the group result.
type SingleProcess struct{}

func (SingleProcess) AgreeAny(ctx context.Context, local bool) (bool, error) {
	return local, nil
}

// LocalGroup coordinates a fixed number of in-process participants. Each
// round collects one vote per participant, then releases all of them with
// the OR of the votes. It backs single-node multi-worker runs and simulates
// a process group in tests.
type LocalGroup struct {
	size    int
	mu      sync.Mutex
	votes   int
	any     bool
	waiters []chan bool
}

// NewLocalGroup returns a consensus group for the given participant count.
func NewLocalGroup(size int) (*LocalGroup, error) {
	if size < 1 {
		return nil, fmt.Errorf("group size must be at least 1, got %d", size)
	}
	return &LocalGroup{size: size}, nil
}

// Size returns the participant count.
func (g *LocalGroup) Size() int {
	return g.size
}

// AgreeAny contributes a vote to the current round and blocks until all
// participants have voted. A participant abandoning the round via context
// cancellation leaves the group unusable; callers treat that as fatal, since
// the run has no meaningful partial-success mode once workers diverge.
func (g *LocalGroup) AgreeAny(ctx context.Context, local bool) (bool, error) {
	ch := make(chan bool, 1)

	g.mu.Lock()
	g.votes++
	g.waiters = append(g.waiters, ch)
	if local {
		g.any = true
	}
	if g.votes == g.size {
		result := g.any
		for _, w := range g.waiters {
			w <- result
		}
		g.votes = 0
		g.any = false
		g.waiters = nil
	}
	g.mu.Unlock()

	select {
	case result := <-ch:
		return result, nil
	case <-ctx.Done():
		return false, fmt.Errorf("consensus aborted: %w", ctx.Err())
	}
}
