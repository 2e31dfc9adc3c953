package cart

import (
	"context"
	"slices"
	"sync"
)

// intentQueue admits one intent at a time in submission order. It is a ticket
// lock: a finishing intent hands its turn directly to the oldest waiter.
type intentQueue struct {
	mu      sync.Mutex
	busy    bool
	waiters []chan struct{}
}

// acquire blocks until it is the caller's turn. If ctx ends first the caller
// leaves the queue and gets ctx.Err().
func (q *intentQueue) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	if !q.busy {
		q.busy = true
		q.mu.Unlock()
		return nil
	}
	turn := make(chan struct{})
	q.waiters = append(q.waiters, turn)
	q.mu.Unlock()

	select {
	case <-turn:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		if i := slices.Index(q.waiters, turn); i >= 0 {
			q.waiters = slices.Delete(q.waiters, i, i+1)
			q.mu.Unlock()
			return ctx.Err()
		}
		q.mu.Unlock()
		// the turn arrived while cancelling; pass it on
		q.release()
		return ctx.Err()
	}
}

// release ends the current turn
func (q *intentQueue) release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.waiters) == 0 {
		q.busy = false
		return
	}
	next := q.waiters[0]
	q.waiters = slices.Delete(q.waiters, 0, 1)
	close(next)
}

// pending returns the number of queued intents, excluding the running one
func (q *intentQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}
