package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentQueue_FIFO(t *testing.T) {
	var q intentQueue
	ctx := context.Background()
	require.NoError(t, q.acquire(ctx))

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, q.acquire(ctx))
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			q.release()
		}()
		require.Eventually(t, func() bool { return q.pending() == i+1 }, time.Second, time.Millisecond)
	}

	q.release()
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.False(t, q.busy)
}

func TestIntentQueue_Cancel(t *testing.T) {
	var q intentQueue
	require.NoError(t, q.acquire(context.Background()))

	t.Run("already cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, q.acquire(ctx), context.Canceled)
		assert.Zero(t, q.pending())
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, q.acquire(ctx), context.DeadlineExceeded)
		assert.Zero(t, q.pending())
	})

	q.release()
	require.NoError(t, q.acquire(context.Background()))
	q.release()
}

func TestIntentQueue_NoLostTurns(t *testing.T) {
	var q intentQueue
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for i := range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			if i%3 == 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(i%7)*time.Microsecond)
				defer cancel()
			}
			if q.acquire(ctx) != nil {
				return
			}
			mu.Lock()
			done++
			mu.Unlock()
			q.release()
		}()
	}
	wg.Wait()

	assert.Positive(t, done)
	assert.Zero(t, q.pending())
	assert.False(t, q.busy)
}
