// Package guard tracks the computations in flight on one logical call chain.
//
// A Guard is threaded through context.Context rather than stored globally, so
// two goroutines working on unrelated requests never see each other's
// in-flight identities. Memoizing callers take a StackStamp before computing
// and ask it afterwards whether the result is safe to cache: a result is
// unsafe when some computation on the chain was reentered (a cycle was cut
// short) while it ran.
package guard

import (
	"context"
	"fmt"
)

// Guard is the in-flight stack of one call chain. It is not safe for
// concurrent use; each goroutine that starts an independent chain needs its
// own Guard.
type Guard struct {
	stack []any
	depth map[any]int

	// prevented counts reentrancies refused by Enter. It only grows.
	prevented uint64
}

// New returns an empty Guard.
func New() *Guard {
	return &Guard{depth: make(map[any]int)}
}

// Enter pushes id onto the stack. It returns false, and records a prevented
// reentrancy, when id is already in flight on this chain. Identities must be
// comparable.
func (g *Guard) Enter(id any) bool {
	if _, busy := g.depth[id]; busy {
		g.prevented++
		return false
	}
	g.depth[id] = len(g.stack)
	g.stack = append(g.stack, id)
	return true
}

// Exit pops id, which must be the innermost identity in flight.
func (g *Guard) Exit(id any) {
	n := len(g.stack)
	if n == 0 || g.stack[n-1] != id {
		panic(fmt.Sprintf("guard: exit %v does not match the innermost computation", id))
	}
	g.stack[n-1] = nil
	g.stack = g.stack[:n-1]
	delete(g.depth, id)
}

// InProgress reports whether id is currently on the stack.
func (g *Guard) InProgress(id any) bool {
	_, busy := g.depth[id]
	return busy
}

// Depth returns the number of computations in flight.
func (g *Guard) Depth() int {
	return len(g.stack)
}

// MarkStack snapshots the guard so a computation starting now can later
// decide whether its result may be cached.
func (g *Guard) MarkStack() StackStamp {
	return StackStamp{g: g, prevented: g.prevented, depth: len(g.stack)}
}

// StackStamp is an immutable snapshot taken by MarkStack.
type StackStamp struct {
	g         *Guard
	prevented uint64
	depth     int
}

// MayCacheNow reports whether no reentrancy was prevented on the chain since
// the stamp was taken. It can say false for a value that was in fact safe
// (an unrelated inner cycle also counts) but never says true for a value
// computed while a cycle was cut short.
func (s StackStamp) MayCacheNow() bool {
	if s.g == nil {
		return true
	}
	return s.g.prevented == s.prevented
}

// Depth is the stack depth recorded when the stamp was taken.
func (s StackStamp) Depth() int {
	return s.depth
}

type ctxKey struct{}

// WithGuard returns a context carrying g.
func WithGuard(ctx context.Context, g *Guard) context.Context {
	return context.WithValue(ctx, ctxKey{}, g)
}

// FromContext returns the Guard carried by ctx, if any.
func FromContext(ctx context.Context) (*Guard, bool) {
	g, ok := ctx.Value(ctxKey{}).(*Guard)
	return g, ok && g != nil
}

// Ensure returns ctx and its Guard, attaching a fresh Guard when ctx has none.
// The returned context must be passed to nested computations so they share
// the chain.
func Ensure(ctx context.Context) (context.Context, *Guard) {
	if g, ok := FromContext(ctx); ok {
		return ctx, g
	}
	g := New()
	return WithGuard(ctx, g), g
}

// DoPreventingRecursion runs fn with id marked in flight. If id is already in
// flight on the chain carried by ctx, fn is not run and ok is false.
func DoPreventingRecursion[T any](ctx context.Context, id any, fn func(context.Context) (T, error)) (result T, ok bool, err error) {
	ctx, g := Ensure(ctx)
	if !g.Enter(id) {
		return result, false, nil
	}
	defer g.Exit(id)
	result, err = fn(ctx)
	return result, true, err
}
