package pair

type op[T any] func(slot[T]) slot[T]

func supply[T any](f func() T) op[T] {
	return func(slot[T]) slot[T] {
		return slotOf(f())
	}
}

func update[T any](f func(T) T) op[T] {
	return func(s slot[T]) slot[T] {
		if s.ok {
			return slotOf(f(s.value))
		}
		return s
	}
}

func peek[T any](f func(T)) op[T] {
	return func(s slot[T]) slot[T] {
		if s.ok {
			f(s.value)
		}
		return s
	}
}

// node is an element of a persistent list of operations, linked from the
// most recent operation back to the first. Nodes are never modified, so a
// list can be shared by any number of planners.
type node[T any] struct {
	prev *node[T]
	op   op[T]
	size int
}

func (n *node[T]) then(o op[T]) *node[T] {
	return &node[T]{prev: n, op: o, size: n.len() + 1}
}

func (n *node[T]) len() int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *node[T]) apply(s slot[T]) slot[T] {
	ops := make([]op[T], n.len())
	for i, m := len(ops)-1, n; m != nil; i, m = i-1, m.prev {
		ops[i] = m.op
	}
	for _, o := range ops {
		s = o(s)
	}
	return s
}

/*
A Planner records operations on a pair without executing them.

Every operation returns a new Planner that shares the pair and the
operations recorded so far, and adds one more operation to each side.
The receiver remains valid and unchanged. ToPair executes the recorded
operations of both sides as one RunTwo call.

ToPair executes the complete chain every time it is invoked, starting
from the current values of the pair. Invoking it twice therefore applies
each update twice.
*/
type Planner[T any] struct {
	pair        *Pair[T]
	left, right *node[T]
}

// Plan returns a planner without operations for p.
func Plan[T any](p *Pair[T]) *Planner[T] {
	return &Planner[T]{pair: p}
}

// Len returns the number of operations recorded for the left and the right
// side.
func (pl *Planner[T]) Len() (left, right int) {
	return pl.left.len(), pl.right.len()
}

func (pl *Planner[T]) with(left, right op[T]) *Planner[T] {
	next := &Planner[T]{pair: pl.pair, left: pl.left, right: pl.right}
	if left != nil {
		next.left = next.left.then(left)
	}
	if right != nil {
		next.right = next.right.then(right)
	}
	return next
}

// Update records an update of both sides.
func (pl *Planner[T]) Update(leftFn, rightFn func(T) T) Chain[T] {
	return pl.with(update(leftFn), update(rightFn))
}

// CUpdate records an update of each side whose condition is true.
func (pl *Planner[T]) CUpdate(leftCond bool, leftFn func(T) T, rightCond bool, rightFn func(T) T) Chain[T] {
	var left, right op[T]
	if leftCond {
		left = update(leftFn)
	}
	if rightCond {
		right = update(rightFn)
	}
	return pl.with(left, right)
}

// Peek records an observation of both sides.
func (pl *Planner[T]) Peek(leftFn, rightFn func(T)) Chain[T] {
	return pl.with(peek(leftFn), peek(rightFn))
}

// ToPair executes the recorded operations and returns the pair.
func (pl *Planner[T]) ToPair() *Pair[T] {
	p := pl.pair
	p.run(
		func() { p.left = pl.left.apply(p.left) },
		func() { p.right = pl.right.apply(p.right) },
	)
	return p
}
