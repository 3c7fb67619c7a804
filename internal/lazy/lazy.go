// Package lazy provides compute-once values that stay correct under
// concurrent readers and under recursive or cyclic derived computations.
package lazy

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jward/arbor/internal/guard"
)

// State is the lifecycle stage of a Value.
type State uint8

const (
	Uncomputed State = iota
	Computing
	Cached
)

func (s State) String() string {
	switch s {
	case Uncomputed:
		return "uncomputed"
	case Computing:
		return "computing"
	case Cached:
		return "cached"
	}
	return "unknown"
}

// ComputeFunc produces a Value's result. ctx carries the guard of the calling
// chain and must be passed to any nested Get.
type ComputeFunc[T any] func(ctx context.Context) (T, error)

// Value memoizes the result of a ComputeFunc.
//
// At most one compute runs at a time per Value; concurrent callers block on
// the Value's mutex and re-check before computing. A Get that reenters a Value
// already being computed on the same call chain gets the placeholder instead
// of deadlocking, and the outer result is then returned without being cached.
// A failed compute leaves the Value uncomputed so later calls retry.
type Value[T any] struct {
	compute     ComputeFunc[T]
	placeholder func() T

	mu        sync.Mutex
	computing atomic.Bool
	cached    atomic.Pointer[T] // non-nil once Cached, even when *cached is a nil T
}

// Option configures a Value.
type Option[T any] func(*Value[T])

// WithPlaceholder sets the value returned to reentrant calls. The default is
// T's zero value.
func WithPlaceholder[T any](fn func() T) Option[T] {
	return func(v *Value[T]) {
		v.placeholder = fn
	}
}

// New returns an uncomputed Value backed by compute.
func New[T any](compute ComputeFunc[T], opts ...Option[T]) *Value[T] {
	v := &Value[T]{compute: compute}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Of returns a Value that is already cached with val. After Reset it
// recomputes to val again.
func Of[T any](val T) *Value[T] {
	v := &Value[T]{compute: func(context.Context) (T, error) { return val, nil }}
	v.cached.Store(&val)
	return v
}

// Get returns the cached result, computing it first if needed.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	if p := v.cached.Load(); p != nil {
		return *p, nil
	}

	ctx, g := guard.Ensure(ctx)
	if !g.Enter(v) {
		return v.reentered(), nil
	}
	defer g.Exit(v)

	v.mu.Lock()
	defer v.mu.Unlock()
	if p := v.cached.Load(); p != nil {
		return *p, nil
	}

	v.computing.Store(true)
	defer v.computing.Store(false)

	stamp := g.MarkStack()
	result, err := v.compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if stamp.MayCacheNow() {
		v.cached.Store(&result)
	}
	return result, nil
}

func (v *Value[T]) reentered() T {
	if v.placeholder != nil {
		return v.placeholder()
	}
	var zero T
	return zero
}

// IsComputed reports whether a result is cached.
func (v *Value[T]) IsComputed() bool {
	return v.cached.Load() != nil
}

// State reports the current lifecycle stage.
func (v *Value[T]) State() State {
	switch {
	case v.cached.Load() != nil:
		return Cached
	case v.computing.Load():
		return Computing
	}
	return Uncomputed
}

// Reset drops the cached result so the next Get recomputes. Owners call it
// when the data the value was derived from changes.
func (v *Value[T]) Reset() {
	v.mu.Lock()
	v.cached.Store(nil)
	v.mu.Unlock()
}
