package lazy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGet_ComputesOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	v := New(func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(5 * time.Millisecond)
		return "shared", nil
	})

	const callers = 32
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got, err := v.Get(context.Background())
			assert.NoError(t, err)
			results[i] = got
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
	assert.Equal(t, Cached, v.State())
}

func TestGet_TwoCallersThenThird(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	v := New(func(context.Context) (int, error) {
		calls.Add(1)
		return 42, nil
	})

	var wg sync.WaitGroup
	got := make([]int, 2)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := v.Get(context.Background())
			assert.NoError(t, err)
			got[i] = n
		}()
	}
	wg.Wait()
	assert.Equal(t, []int{42, 42}, got)

	third, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, third)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_SelfCycleReturnsWithoutCaching(t *testing.T) {
	t.Parallel()

	var calls int
	var nested []int
	var v *Value[int]
	v = New(func(ctx context.Context) (int, error) {
		calls++
		inner, err := v.Get(ctx)
		if err != nil {
			return 0, err
		}
		nested = append(nested, inner)
		return inner + 10, nil
	}, WithPlaceholder(func() int { return -1 }))

	done := make(chan int, 1)
	go func() {
		n, err := v.Get(context.Background())
		assert.NoError(t, err)
		done <- n
	}()

	select {
	case n := <-done:
		assert.Equal(t, 9, n)
	case <-time.After(5 * time.Second):
		t.Fatal("self-reentrant Get deadlocked")
	}

	assert.Equal(t, []int{-1}, nested)
	assert.Equal(t, Uncomputed, v.State())
	assert.False(t, v.IsComputed())

	_, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "uncached cyclic result forces a fresh compute")
}

func TestGet_MutualCycleNeitherCached(t *testing.T) {
	t.Parallel()

	var a, b *Value[string]
	a = New(func(ctx context.Context) (string, error) {
		s, err := b.Get(ctx)
		return "a(" + s + ")", err
	})
	b = New(func(ctx context.Context) (string, error) {
		s, err := a.Get(ctx)
		return "b(" + s + ")", err
	})

	got, err := a.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a(b())", got)
	assert.False(t, a.IsComputed())
	assert.False(t, b.IsComputed())
}

func TestGet_AcyclicDependenciesAreCached(t *testing.T) {
	t.Parallel()

	leaf := New(func(context.Context) (int, error) { return 2, nil })
	root := New(func(ctx context.Context) (int, error) {
		n, err := leaf.Get(ctx)
		return n * 3, err
	})

	got, err := root.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, got)
	assert.True(t, root.IsComputed())
	assert.True(t, leaf.IsComputed())
}

func TestGet_NilResultIsCached(t *testing.T) {
	t.Parallel()

	var calls int
	v := New(func(context.Context) (*int, error) {
		calls++
		return nil, nil
	})

	assert.Equal(t, Uncomputed, v.State())
	first, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, first)
	assert.True(t, v.IsComputed())

	second, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Equal(t, 1, calls)
}

func TestGet_FailureDoesNotPoison(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var calls int
	v := New(func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 5, nil
	})

	_, err := v.Get(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Uncomputed, v.State())

	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Equal(t, 2, calls)
}

func TestGet_WaiterRetriesAfterFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	v := New(func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return 0, boom
		}
		return 7, nil
	})

	firstErr := make(chan error, 1)
	go func() {
		_, err := v.Get(context.Background())
		firstErr <- err
	}()
	<-started

	second := make(chan int, 1)
	go func() {
		n, err := v.Get(context.Background())
		assert.NoError(t, err)
		second <- n
	}()

	close(release)
	assert.ErrorIs(t, <-firstErr, boom)
	assert.Equal(t, 7, <-second)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_PanicReleasesLock(t *testing.T) {
	t.Parallel()

	var calls int
	v := New(func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			panic("compute exploded")
		}
		return 1, nil
	})

	assert.Panics(t, func() { _, _ = v.Get(context.Background()) })
	assert.Equal(t, Uncomputed, v.State())

	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestState_ComputingDuringCompute(t *testing.T) {
	t.Parallel()

	var seen State
	var v *Value[int]
	v = New(func(context.Context) (int, error) {
		seen = v.State()
		return 1, nil
	})

	_, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Computing, seen)
	assert.Equal(t, Cached, v.State())
	assert.Equal(t, "cached", v.State().String())
}

func TestReset_ForcesRecompute(t *testing.T) {
	t.Parallel()

	var calls int
	v := New(func(context.Context) (int, error) {
		calls++
		return calls, nil
	})

	first, _ := v.Get(context.Background())
	v.Reset()
	assert.False(t, v.IsComputed())
	second, _ := v.Get(context.Background())

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestOf_IsPrecomputed(t *testing.T) {
	t.Parallel()
	v := Of("ready")
	assert.True(t, v.IsComputed())
	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ready", got)
}

func TestOf_ResetRecomputesSameValue(t *testing.T) {
	v := Of(3)
	v.Reset()
	assert.False(t, v.IsComputed())

	var got int
	var err error
	require.NotPanics(t, func() { got, err = v.Get(context.Background()) })
	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.True(t, v.IsComputed())
}
