// Package sequential provides sequential implementations of the
// parcore.PairRunner and parcore.LoopSplitter interfaces.
//
// They are used whenever no worker pool is configured, and they are
// observably equivalent to the implementations in package parallel, except
// that all work happens in the calling goroutine in a fixed order. This also
// makes them useful for testing and debugging.
package sequential

import (
	"github.com/exascience/parcore"
	"github.com/exascience/parcore/internal"
)

var (
	_ parcore.PairRunner   = Runner{}
	_ parcore.LoopSplitter = Splitter{}
)

// Runner is the sequential parcore.PairRunner. The zero Runner is ready to
// use.
type Runner struct{}

// RunOne executes action and returns its error, if any, wrapped in a
// *parcore.ExecutionFailedError.
func (Runner) RunOne(action func() error) error {
	return parcore.Failed(action())
}

func protect(action func() error) (p interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = internal.WrapPanic(r)
		}
	}()
	err = action()
	return
}

// RunTwo executes first and then second, in the calling goroutine.
//
// second is executed even if first fails or panics. RunTwo returns the
// left-most error, and panics with the left-most recovered panic value
// after both actions have terminated.
func (Runner) RunTwo(first, second func() error) error {
	p0, err0 := protect(first)
	p1, err1 := protect(second)
	if p0 != nil {
		panic(p0)
	}
	if p1 != nil {
		panic(p1)
	}
	return parcore.FirstFailure(err0, err1)
}

// RunConditional executes the actions whose conditions are true, in order.
func (r Runner) RunConditional(cond1 bool, action1 func() error, cond2 bool, action2 func() error) error {
	switch {
	case cond1 && cond2:
		return r.RunTwo(action1, action2)
	case cond1:
		return r.RunOne(action1)
	case cond2:
		return r.RunOne(action2)
	default:
		return nil
	}
}

// IsParallel returns false.
func (Runner) IsParallel() bool {
	return false
}

// IsWithIntermediateSync returns true.
func (Runner) IsWithIntermediateSync() bool {
	return true
}

// Splitter is the sequential parcore.LoopSplitter. It never divides a
// range: the whole range is a single chunk. The zero Splitter is ready to
// use.
type Splitter struct{}

// SplitFor invokes body once for the whole range from low to high, unless
// the range is empty.
func (s Splitter) SplitFor(low, high int, body func(low, high int) error) error {
	return s.SplitForChunks(low, high, func(_, low, high int) error {
		return body(low, high)
	})
}

// SplitForChunks invokes body once with chunk index 0 for the whole range
// from low to high, unless the range is empty.
func (Splitter) SplitForChunks(low, high int, body func(chunk, low, high int) error) error {
	if low >= high {
		return nil
	}
	return parcore.Failed(body(0, low, high))
}

// Chunks returns 1 for non-empty ranges and 0 otherwise.
func (Splitter) Chunks(low, high int) int {
	return internal.ClampTasks(low, high, 1)
}

// NTasksToSpawn returns 0.
func (Splitter) NTasksToSpawn() int {
	return 0
}
