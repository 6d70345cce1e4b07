package executor

import (
	"github.com/exascience/parcore"
	"github.com/exascience/parcore/pair"
)

var std = New()

// Default returns the process-wide Configurator that the functions of this
// package operate on.
func Default() *Configurator {
	return std
}

// Init configures the process-wide Configurator with DefaultParameters for
// the hardware parallelism.
func Init() error {
	return std.Init()
}

// InitWith configures the process-wide Configurator with p.
func InitWith(p Parameters) error {
	return std.InitWith(p)
}

// Shutdown shuts down the process-wide Configurator.
func Shutdown() {
	std.Shutdown()
}

// SetPoolParallelism resizes the pool of the process-wide Configurator.
func SetPoolParallelism(n int) error {
	return std.SetPoolParallelism(n)
}

// SetParameters reconfigures the process-wide Configurator.
func SetParameters(parallelism int, parLR, withIntermediateSync bool, tasksToSpawn int) error {
	return std.SetParameters(parallelism, parLR, withIntermediateSync, tasksToSpawn)
}

// CurrentSettings returns the settings of the process-wide Configurator.
func CurrentSettings() Settings {
	return std.Settings()
}

// Runner returns the active PairRunner of the process-wide Configurator.
func Runner() parcore.PairRunner {
	return std.Runner()
}

// Splitter returns the active LoopSplitter of the process-wide
// Configurator.
func Splitter() parcore.LoopSplitter {
	return std.Splitter()
}

// SplitFor executes body for each chunk of the range from low to high.
func SplitFor(low, high int, body func(low, high int) error) error {
	return std.SplitFor(low, high, body)
}

// SplitForReduce executes body for each chunk of the range from low to high
// and merges the results in ascending chunk order.
func SplitForReduce[T any](low, high int, body func(low, high int) (T, error), merge func(results []T) T) (T, error) {
	return SplitForReduceOn(std, low, high, body, merge)
}

// RunOne executes action.
func RunOne(action func() error) error {
	return std.RunOne(action)
}

// RunTwo executes first and second, in parallel if so configured.
func RunTwo(first, second func() error) error {
	return std.RunTwo(first, second)
}

// RunConditional executes the actions whose conditions are true.
func RunConditional(cond1 bool, action1 func() error, cond2 bool, action2 func() error) error {
	return std.RunConditional(cond1, action1, cond2, action2)
}

// CallOne executes computation and returns its result.
func CallOne[T any](computation func() (T, error)) (T, error) {
	return CallOn(std, computation)
}

// PairOf starts a chain of pair operations.
func PairOf[T any](left, right func() T) pair.Chain[T] {
	return PairOn(std, left, right)
}
