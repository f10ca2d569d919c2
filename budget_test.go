package tether

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget(t *testing.T) {
	t.Run("counts down per failed attempt", func(t *testing.T) {
		b := newBudget(3, time.Second)

		assert.Equal(t, 2, b.fail())
		assert.Equal(t, 1, b.fail())
		assert.Equal(t, 0, b.fail())
	})

	t.Run("never goes negative", func(t *testing.T) {
		b := newBudget(1, time.Second)

		assert.Equal(t, 0, b.fail())
		assert.Equal(t, 0, b.fail())
		assert.Equal(t, 0, b.fail())
	})

	t.Run("zero attempts is exhausted after one failure", func(t *testing.T) {
		b := newBudget(0, time.Second)

		assert.Equal(t, 0, b.fail())
	})
}

func TestBudgetWait(t *testing.T) {
	t.Run("waits the fixed interval", func(t *testing.T) {
		b := newBudget(1, 20*time.Millisecond)

		started := time.Now()
		require.NoError(t, b.wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)
	})

	t.Run("zero interval returns immediately", func(t *testing.T) {
		b := newBudget(1, 0)

		started := time.Now()
		require.NoError(t, b.wait(context.Background()))
		assert.Less(t, time.Since(started), 20*time.Millisecond)
	})

	t.Run("canceled context interrupts the wait", func(t *testing.T) {
		b := newBudget(1, time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		started := time.Now()
		err := b.wait(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(started), time.Second)
	})
}
