package parcore

import "github.com/exascience/parcore/internal"

/*
A PairRunner executes zero, one, or two independent actions.

Implementations are immutable and safe for concurrent use. Whether the
two actions of RunTwo execute in parallel is an implementation detail
that callers can inspect with IsParallel, but must not depend on: in
parallel mode the relative order of the two actions is unspecified.

All methods return only after every action they started has terminated.
Errors returned by actions are wrapped in an *ExecutionFailedError, with
the left-most error taking precedence. If an action panics, the other
action is still awaited, and the left-most panic is then re-raised with
additional stack trace information.
*/
type PairRunner interface {
	// RunOne executes action in the calling goroutine.
	RunOne(action func() error) error

	// RunTwo executes first and second. Sequential runners execute first
	// before second, so that second observes all side effects of first.
	RunTwo(first, second func() error) error

	// RunConditional behaves like RunTwo if both conditions are true, like
	// RunOne on the corresponding action if exactly one is true, and does
	// nothing if neither is true. An action whose condition is false is
	// never invoked.
	RunConditional(cond1 bool, action1 func() error, cond2 bool, action2 func() error) error

	// IsParallel reports whether RunTwo may execute its actions in
	// parallel.
	IsParallel() bool

	// IsWithIntermediateSync reports whether chained two-fold operations
	// should synchronize after each step. It is always true for sequential
	// runners.
	IsWithIntermediateSync() bool
}

/*
A LoopSplitter divides a half-open integer range into contiguous chunks
and executes a range function for each chunk.

The range from low to high is divided into n = Chunks(low, high) chunks,
where the lower bound of chunk i is low + (high-low)*i/n, using integer
division. The chunks partition the range: every index belongs to exactly
one chunk. If low >= high, nothing is executed.

Implementations are immutable and safe for concurrent use. Failures are
handled as for PairRunner: all chunks run to completion, and the
left-most error or panic is surfaced afterwards.
*/
type LoopSplitter interface {
	// SplitFor executes body for each chunk of the range from low to high.
	SplitFor(low, high int, body func(low, high int) error) error

	// SplitForChunks is like SplitFor, but also passes the chunk index to
	// body.
	SplitForChunks(low, high int, body func(chunk, low, high int) error) error

	// Chunks returns the number of chunks the range from low to high is
	// divided into, which is 0 for empty ranges.
	Chunks(low, high int) int

	// NTasksToSpawn returns the configured number of chunks, or 0 if the
	// splitter is sequential.
	NTasksToSpawn() int
}

// Boundaries returns the n+1 chunk boundaries of the range from low to high,
// after clamping n to the interval [1, high-low]. Chunk i covers the
// half-open interval from result[i] to result[i+1]. Boundaries returns nil
// for empty ranges.
func Boundaries(low, high, n int) []int {
	n = internal.ClampTasks(low, high, n)
	if n == 0 {
		return nil
	}
	result := make([]int, n+1)
	for i := range result {
		result[i] = internal.Boundary(low, high, i, n)
	}
	return result
}

/*
CallOne executes computation through r and returns its result.

If computation returns an error, CallOne returns the zero value and an
*ExecutionFailedError wrapping that error. Nothing is retried.
*/
func CallOne[T any](r PairRunner, computation func() (T, error)) (result T, err error) {
	err = r.RunOne(func() (err error) {
		result, err = computation()
		return
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

/*
SplitForReduce executes body for each chunk of the range from low to high
through s, and combines the per-chunk results with merge.

The results are passed to merge in ascending chunk order, which is the
left-to-right order of the chunks in the range, regardless of the order
in which the chunks completed. If low >= high, SplitForReduce returns
merge(nil), so merge must define a result for an empty sequence.

If one or more chunks fail, SplitForReduce returns the zero value and the
left-most error, and merge is not invoked.
*/
func SplitForReduce[T any](
	s LoopSplitter,
	low, high int,
	body func(low, high int) (T, error),
	merge func(results []T) T,
) (T, error) {
	n := s.Chunks(low, high)
	if n == 0 {
		return merge(nil), nil
	}
	results := make([]T, n)
	if err := s.SplitForChunks(low, high, func(chunk, low, high int) (err error) {
		results[chunk], err = body(low, high)
		return
	}); err != nil {
		var zero T
		return zero, err
	}
	return merge(results), nil
}
