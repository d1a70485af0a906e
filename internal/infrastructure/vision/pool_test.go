package vision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionPool(t *testing.T) {
	next := 0
	var destroyed []int
	pool, err := newSessionPool(2, func() (int, error) {
		next++
		return next, nil
	}, func(s int) { destroyed = append(destroyed, s) })
	require.NoError(t, err)

	a, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	b, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 2}, []int{a, b})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	pool.Release(a)
	pool.Destroy()
	require.Equal(t, []int{a}, destroyed)

	pool.Release(b)
	require.ElementsMatch(t, []int{1, 2}, destroyed)

	_, err = pool.Acquire(context.Background())
	require.Error(t, err)
}

func TestSessionPool_CreateFailure(t *testing.T) {
	created := 0
	destroyed := 0
	_, err := newSessionPool(3, func() (int, error) {
		if created == 2 {
			return 0, errors.New("no memory")
		}
		created++
		return created, nil
	}, func(int) { destroyed++ })

	require.Error(t, err)
	require.Equal(t, 2, destroyed)
}
