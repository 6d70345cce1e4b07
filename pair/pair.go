/*
Package pair provides a pair of values that can be computed and updated
independently, with the two sides executed through a parcore.PairRunner.

A Pair executes each operation immediately, as one RunTwo call. A Planner
records operations instead, and executes the complete chain of each side
in a single RunTwo call when ToPair is invoked. Both produce the same
final values for the same chain of pure functions; they only differ in
how often the two sides synchronize.

Each side of a pair can be absent. A nil pointer, map, slice, channel,
function or interface value counts as absent. Operations are never
applied to an absent side, so absence propagates through a chain of
updates.

The two sides of a pair are only ever touched by different actions of the
same RunTwo call, so pairs need no locking of their own. Functions passed
to the operations of this package must synchronize any other state they
share.
*/
package pair

import (
	"reflect"

	"github.com/exascience/parcore"
	"github.com/exascience/parcore/sequential"
)

type slot[T any] struct {
	value T
	ok    bool
}

// slotOf returns a slot holding v. Nil pointers, maps, slices, channels,
// functions and interfaces yield an absent slot.
func slotOf[T any](v T) slot[T] {
	return slot[T]{v, !isNil(v)}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// A Pair holds two independently updatable values, each of which may be
// absent.
//
// The zero Pair has two absent sides and executes sequentially.
type Pair[T any] struct {
	runner      parcore.PairRunner
	left, right slot[T]
}

func runnerOrDefault(r parcore.PairRunner) parcore.PairRunner {
	if r == nil {
		return sequential.Runner{}
	}
	return r
}

// New returns a pair of the given values. A nil value leaves its side
// absent. If r is nil, the pair executes sequentially.
func New[T any](r parcore.PairRunner, left, right T) *Pair[T] {
	return &Pair[T]{
		runner: runnerOrDefault(r),
		left:   slotOf(left),
		right:  slotOf(right),
	}
}

// Empty returns a pair with both sides absent.
func Empty[T any](r parcore.PairRunner) *Pair[T] {
	return &Pair[T]{runner: runnerOrDefault(r)}
}

// Of computes both sides of a new pair with one RunTwo call. A supplier
// that returns nil leaves its side absent.
func Of[T any](r parcore.PairRunner, left, right func() T) *Pair[T] {
	p := Empty[T](r)
	p.run(
		func() { p.left = supply(left)(p.left) },
		func() { p.right = supply(right)(p.right) },
	)
	return p
}

// OfOptional computes both sides of a new pair with one RunTwo call. A
// function that returns false as its second result, or a nil value, leaves
// its side absent.
func OfOptional[T any](r parcore.PairRunner, left, right func() (T, bool)) *Pair[T] {
	p := Empty[T](r)
	p.run(
		func() { p.left = optional(left()) },
		func() { p.right = optional(right()) },
	)
	return p
}

func optional[T any](v T, ok bool) slot[T] {
	if !ok {
		return slot[T]{}
	}
	return slotOf(v)
}

func (p *Pair[T]) run(left, right func()) {
	if p.runner == nil {
		p.runner = sequential.Runner{}
	}
	if err := p.runner.RunTwo(
		func() error { left(); return nil },
		func() error { right(); return nil },
	); err != nil {
		panic(err)
	}
}

// Left returns the left value, and whether it is present.
func (p *Pair[T]) Left() (T, bool) {
	return p.left.value, p.left.ok
}

// Right returns the right value, and whether it is present.
func (p *Pair[T]) Right() (T, bool) {
	return p.right.value, p.right.ok
}

// Runner returns the runner the pair executes its operations with.
func (p *Pair[T]) Runner() parcore.PairRunner {
	return runnerOrDefault(p.runner)
}

// Update replaces each present side by the result of applying the
// corresponding function to it, with one RunTwo call. Absent sides stay
// absent, and a side whose function returns nil becomes absent. Update
// returns p.
func (p *Pair[T]) Update(leftFn, rightFn func(T) T) *Pair[T] {
	p.run(
		func() { p.left = update(leftFn)(p.left) },
		func() { p.right = update(rightFn)(p.right) },
	)
	return p
}

// CUpdate is like Update, except that a side whose condition is false is
// left untouched, and its function is not invoked.
func (p *Pair[T]) CUpdate(leftCond bool, leftFn func(T) T, rightCond bool, rightFn func(T) T) *Pair[T] {
	if err := p.Runner().RunConditional(
		leftCond, func() error { p.left = update(leftFn)(p.left); return nil },
		rightCond, func() error { p.right = update(rightFn)(p.right); return nil },
	); err != nil {
		panic(err)
	}
	return p
}

// Peek passes each present side to the corresponding function, with one
// RunTwo call, without changing the pair. Peek returns p.
func (p *Pair[T]) Peek(leftFn, rightFn func(T)) *Pair[T] {
	p.run(
		func() { p.left = peek(leftFn)(p.left) },
		func() { p.right = peek(rightFn)(p.right) },
	)
	return p
}

// Chain returns a view of p that satisfies Chain, executing every operation
// immediately.
func (p *Pair[T]) Chain() Chain[T] {
	return eager[T]{p}
}

// A Chain is a sequence of pair operations. Depending on the
// implementation, operations execute immediately or when ToPair is
// invoked.
type Chain[T any] interface {
	Update(leftFn, rightFn func(T) T) Chain[T]
	CUpdate(leftCond bool, leftFn func(T) T, rightCond bool, rightFn func(T) T) Chain[T]
	Peek(leftFn, rightFn func(T)) Chain[T]

	// ToPair returns the underlying pair, after executing all operations
	// that are still pending.
	ToPair() *Pair[T]
}

type eager[T any] struct {
	pair *Pair[T]
}

func (e eager[T]) Update(leftFn, rightFn func(T) T) Chain[T] {
	e.pair.Update(leftFn, rightFn)
	return e
}

func (e eager[T]) CUpdate(leftCond bool, leftFn func(T) T, rightCond bool, rightFn func(T) T) Chain[T] {
	e.pair.CUpdate(leftCond, leftFn, rightCond, rightFn)
	return e
}

func (e eager[T]) Peek(leftFn, rightFn func(T)) Chain[T] {
	e.pair.Peek(leftFn, rightFn)
	return e
}

func (e eager[T]) ToPair() *Pair[T] {
	return e.pair
}
