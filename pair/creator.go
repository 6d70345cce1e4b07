package pair

import "github.com/exascience/parcore"

// A Creator starts a chain of pair operations from two suppliers.
type Creator[T any] interface {
	Of(left, right func() T) Chain[T]
}

// EagerCreator starts chains that execute every operation immediately,
// synchronizing both sides after each step.
type EagerCreator[T any] struct {
	Runner parcore.PairRunner
}

// Of computes both sides immediately.
func (c EagerCreator[T]) Of(left, right func() T) Chain[T] {
	return Of(c.Runner, left, right).Chain()
}

// PlannedCreator starts chains that defer all operations, including the
// suppliers, to a single RunTwo call in ToPair.
type PlannedCreator[T any] struct {
	Runner parcore.PairRunner
}

// Of records the suppliers as the first operation of each side.
func (c PlannedCreator[T]) Of(left, right func() T) Chain[T] {
	return Plan(Empty[T](c.Runner)).with(supply(left), supply(right))
}

// NewCreator selects the eager creator if r synchronizes intermediate
// steps, and the planned creator otherwise.
func NewCreator[T any](r parcore.PairRunner) Creator[T] {
	r = runnerOrDefault(r)
	if r.IsWithIntermediateSync() {
		return EagerCreator[T]{r}
	}
	return PlannedCreator[T]{r}
}
