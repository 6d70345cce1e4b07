// Package parallel provides pool-backed implementations of the
// parcore.PairRunner and parcore.LoopSplitter interfaces.
//
// Both implementations capture a *pool.Pool when they are created and use it
// for every call, even if the process-wide configuration replaces that pool
// in the meantime. A pool that has been shut down executes all work in the
// calling goroutine, so calls never fail because of a reconfiguration.
package parallel

import (
	"github.com/exascience/parcore"
	"github.com/exascience/parcore/internal"
	"github.com/exascience/parcore/pool"
)

var (
	_ parcore.PairRunner   = (*Runner)(nil)
	_ parcore.LoopSplitter = (*Splitter)(nil)
)

// Runner is the pool-backed parcore.PairRunner.
type Runner struct {
	pool                 *pool.Pool
	withIntermediateSync bool
}

// NewRunner returns a runner that executes pairs of actions on p.
func NewRunner(p *pool.Pool, withIntermediateSync bool) *Runner {
	return &Runner{pool: p, withIntermediateSync: withIntermediateSync}
}

// Pool returns the pool this runner executes on.
func (r *Runner) Pool() *pool.Pool {
	return r.pool
}

// RunOne executes action in the calling goroutine, without involving the
// pool.
func (r *Runner) RunOne(action func() error) error {
	return parcore.Failed(action())
}

// RunTwo receives two actions and executes them as one joint unit on the
// pool. RunTwo returns only when both actions have terminated, returning
// the left-most error value that is different from nil.
//
// If one or both actions panic, RunTwo eventually panics with the
// left-most recovered panic value.
func (r *Runner) RunTwo(first, second func() error) error {
	var err0, err1 error
	r.pool.Join(
		func() { err0 = first() },
		func() { err1 = second() },
	)
	return parcore.FirstFailure(err0, err1)
}

// RunConditional executes both actions on the pool if both conditions are
// true, and a single action in the calling goroutine if only its condition
// is true.
func (r *Runner) RunConditional(cond1 bool, action1 func() error, cond2 bool, action2 func() error) error {
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

// IsParallel returns true.
func (r *Runner) IsParallel() bool {
	return true
}

// IsWithIntermediateSync returns the flag the runner was created with.
func (r *Runner) IsWithIntermediateSync() bool {
	return r.withIntermediateSync
}

// Splitter is the pool-backed parcore.LoopSplitter.
type Splitter struct {
	pool         *pool.Pool
	tasksToSpawn int
}

// NewSplitter returns a splitter that divides ranges into up to
// tasksToSpawn chunks and executes them on p. Values of tasksToSpawn <= 0
// are treated as 1.
func NewSplitter(p *pool.Pool, tasksToSpawn int) *Splitter {
	if tasksToSpawn < 1 {
		tasksToSpawn = 1
	}
	return &Splitter{pool: p, tasksToSpawn: tasksToSpawn}
}

// Pool returns the pool this splitter executes on.
func (s *Splitter) Pool() *pool.Pool {
	return s.pool
}

// SplitFor receives a range and a range function body, divides the range
// into chunks, and invokes body for each chunk in parallel, covering the
// half-open interval from low to high.
func (s *Splitter) SplitFor(low, high int, body func(low, high int) error) error {
	return s.SplitForChunks(low, high, func(_, low, high int) error {
		return body(low, high)
	})
}

// SplitForChunks divides the range from low to high into Chunks(low, high)
// chunks and submits all of them as one joint unit to the pool. It returns
// only when every chunk has terminated, returning the left-most error
// value that is different from nil.
//
// If one or more chunks panic, SplitForChunks eventually panics with the
// left-most recovered panic value.
func (s *Splitter) SplitForChunks(low, high int, body func(chunk, low, high int) error) error {
	n := s.Chunks(low, high)
	switch n {
	case 0:
		return nil
	case 1:
		return parcore.Failed(body(0, low, high))
	}
	errs := make([]error, n)
	tasks := make([]func(), n)
	for i := range tasks {
		i, lo, hi := i, internal.Boundary(low, high, i, n), internal.Boundary(low, high, i+1, n)
		tasks[i] = func() { errs[i] = body(i, lo, hi) }
	}
	s.pool.Join(tasks...)
	return parcore.FirstFailure(errs...)
}

// Chunks returns the configured number of tasks, clamped to the size of the
// range.
func (s *Splitter) Chunks(low, high int) int {
	return internal.ClampTasks(low, high, s.tasksToSpawn)
}

// NTasksToSpawn returns the configured number of tasks.
func (s *Splitter) NTasksToSpawn() int {
	return s.tasksToSpawn
}
