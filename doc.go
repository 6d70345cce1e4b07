// Package parcore provides a runtime-reconfigurable layer for expressing
// parallel algorithms without committing to a particular execution
// strategy. Algorithmic code splits index ranges into chunks and runs pairs
// of independent actions through the interfaces defined here, and the same
// call sites execute either on a bounded worker pool or strictly
// sequentially, with identical ordering, failure propagation, and result
// merging.
//
// Parcore provides the following subpackages:
//
// parcore/pool provides the bounded fork-join worker pool that backs
// parallel execution, including drain-then-stop teardown.
//
// parcore/parallel provides the pool-backed implementations of PairRunner
// and LoopSplitter.
//
// parcore/sequential provides the sequential implementations of PairRunner
// and LoopSplitter. They are used whenever no pool is configured.
//
// parcore/pair provides a pair of independently updatable values, with an
// eager variant that synchronizes after each step and a planned variant that
// defers a chain of steps to one parallel flush.
//
// parcore/executor owns the process-wide configuration: the current pool,
// the active strategies, and a read-only view of the settings. It also
// provides the static entry points most programs use.
//
// parcore/sort provides parallel quicksort and merge sort implementations
// that run on any PairRunner, and a sortedness test that runs on any
// LoopSplitter.
//
// Parcore has been influenced to various extents by ideas from Cilk,
// Threading Building Blocks, and Java's java.util.concurrent package. See
// http://supertech.csail.mit.edu/papers/steal.pdf for some theoretical
// background.
package parcore
