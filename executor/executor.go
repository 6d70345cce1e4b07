/*
Package executor owns the configuration of parallel execution: the worker
pool, the active PairRunner and LoopSplitter strategies, and a read-only
view of the settings.

A Configurator moves through three states:

	Uninitialized -> Configured   [Init, InitWith]
	Configured    -> Configured   [SetPoolParallelism, SetTaskingParameters, SetParameters]
	Configured    -> Shutdown     [Shutdown]
	Shutdown      -> Configured   [Init, InitWith]

In every state, Runner and Splitter return valid strategies. Before
initialization and after shutdown these are the sequential strategies, so
code that calls into this package never has to check whether parallel
execution has been set up.

Strategies and pools are replaced, never modified. A call that obtained a
strategy keeps using it and its pool until it returns, even if the
configuration changes in the meantime. A replaced pool is drained within a
grace period, and runs any work that is still submitted to it in the
submitting goroutine.

Most programs use the process-wide Configurator through the functions of
this package, such as Init, Shutdown, SplitFor, and RunTwo. Tests and
libraries that need isolation can create their own Configurator with New.
*/
package executor

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/exascience/parcore"
	"github.com/exascience/parcore/internal"
	"github.com/exascience/parcore/pair"
	"github.com/exascience/parcore/parallel"
	"github.com/exascience/parcore/pool"
	"github.com/exascience/parcore/sequential"
)

// State represents configurator lifecycle states.
type State int32

const (
	StateUninitialized State = iota
	StateConfigured
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// strategies is an immutable snapshot of the active configuration.
type strategies struct {
	runner   parcore.PairRunner
	splitter parcore.LoopSplitter

	parallelism                           int
	parLR, parLoops, withIntermediateSync bool
	tasksToSpawn                          int
}

// An Option configures a Configurator.
type Option func(*Configurator)

// WithLogger sets the logger for the configurator and its pools. A
// Parameters.LogLevel passed to InitWith changes the level of this logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Configurator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics makes all pools of the configurator report to m.
func WithMetrics(m *pool.Metrics) Option {
	return func(c *Configurator) {
		c.metrics = m
	}
}

// WithGracePeriod sets how long replaced pools may take to drain.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Configurator) {
		if d >= 0 {
			c.grace = d
		}
	}
}

// WithHardwareParallelism replaces runtime.NumCPU as the source of the
// hardware parallelism.
func WithHardwareParallelism(hardware func() int) Option {
	return func(c *Configurator) {
		if hardware != nil {
			c.hardware = hardware
		}
	}
}

// A Configurator manages a worker pool and the strategies that execute work
// on it. The zero Configurator is not valid; use New.
type Configurator struct {
	mu      sync.Mutex
	state   atomic.Int32
	pool    atomic.Pointer[pool.Pool]
	current atomic.Pointer[strategies]

	hardware func() int
	grace    time.Duration
	logger   *log.Logger
	metrics  *pool.Metrics
}

// New returns an uninitialized Configurator.
func New(opts ...Option) *Configurator {
	c := &Configurator{
		hardware: runtime.NumCPU,
		grace:    DefaultGracePeriod,
		logger:   internal.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Configurator) State() State {
	return State(c.state.Load())
}

// HardwareParallelism returns the parallelism reported by the hardware.
func (c *Configurator) HardwareParallelism() int {
	return c.hardware()
}

// Init configures c with DefaultParameters for the hardware parallelism.
func (c *Configurator) Init() error {
	return c.InitWith(DefaultParameters(c.hardware()))
}

// InitWith configures c with p. InitWith can also be used to re-initialize
// a configurator that has been shut down.
//
// If p.LogLevel is set, InitWith sets the level of the configurator's
// logger, which is the logger passed to WithLogger if there was one.
func (c *Configurator) InitWith(p Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.LogLevel != "" {
		level, _ := log.ParseLevel(p.LogLevel)
		c.logger.SetLevel(level)
	}
	if p.GracePeriod > 0 {
		c.grace = p.GracePeriod
	}
	old, _, err := c.swapPool(p.Parallelism)
	if err != nil {
		return err
	}
	c.rebuild(p.ParallelLR, p.TasksToSpawn > 0, p.WithIntermediateSync, p.TasksToSpawn)
	c.state.Store(int32(StateConfigured))
	c.retire(old)
	c.logger.Info("parallel execution configured",
		"parallelism", p.Parallelism,
		"tasks_to_spawn", p.TasksToSpawn,
		"parallel_lr", p.ParallelLR,
		"intermediate_sync", p.WithIntermediateSync)
	return nil
}

// swapPool publishes a pool of size n, and returns the pool it replaced,
// which the caller must retire once the new strategies are published.
// swapPool reports false if the size does not change.
func (c *Configurator) swapPool(n int) (*pool.Pool, bool, error) {
	if n == parallelismOf(c.pool.Load()) {
		return nil, false, nil
	}
	var next *pool.Pool
	if n > 0 {
		var err error
		next, err = pool.New(n, pool.WithLogger(c.logger), pool.WithMetrics(c.metrics))
		if err != nil {
			return nil, false, err
		}
	} else {
		c.metrics.SetParallelism(0)
	}
	old := c.pool.Swap(next)
	c.logger.Debug("pool replaced", "from", parallelismOf(old), "to", n)
	return old, true, nil
}

func parallelismOf(p *pool.Pool) int {
	if p == nil {
		return 0
	}
	return p.Parallelism()
}

// retire drains a replaced pool.
func (c *Configurator) retire(old *pool.Pool) {
	if old == nil {
		return
	}
	if !old.Shutdown(c.grace) {
		c.logger.Debug("retired pool abandoned", "pool", old.ID())
	}
}

func (c *Configurator) rebuild(parLR, parLoops, withIntermediateSync bool, tasksToSpawn int) {
	s := &strategies{
		runner:               sequential.Runner{},
		splitter:             sequential.Splitter{},
		parLR:                parLR,
		parLoops:             parLoops,
		withIntermediateSync: withIntermediateSync,
		tasksToSpawn:         tasksToSpawn,
	}
	if p := c.pool.Load(); p != nil {
		s.parallelism = p.Parallelism()
		if parLR {
			s.runner = parallel.NewRunner(p, withIntermediateSync)
		}
		if parLoops {
			s.splitter = parallel.NewSplitter(p, tasksToSpawn)
		}
	}
	c.current.Store(s)
}

func (c *Configurator) checkConfigured() error {
	if c.State() != StateConfigured {
		return parcore.ErrNotInitialized
	}
	return nil
}

/*
SetPoolParallelism replaces the worker pool by a pool of size n, or
removes the pool if n is 0, and rebuilds the strategies for the new pool
with the current flags.

If n equals the current parallelism, SetPoolParallelism does nothing.
Otherwise, the new pool and strategies are published before the old pool
is drained, and SetPoolParallelism returns once the old pool has drained
or its grace period has expired.
*/
func (c *Configurator) SetPoolParallelism(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", parcore.ErrInvalidParallelism, n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkConfigured(); err != nil {
		return err
	}
	old, changed, err := c.swapPool(n)
	if err != nil || !changed {
		return err
	}
	s := c.current.Load()
	c.rebuild(s.parLR, s.parLoops, s.withIntermediateSync, s.tasksToSpawn)
	c.retire(old)
	c.logger.Info("pool parallelism changed", "parallelism", n)
	return nil
}

// SetTaskingParameters rebuilds the runner and the splitter for the current
// pool. The runner is pool-backed only if there is a pool and parLR is
// true; the splitter only if there is a pool and parLoops is true.
func (c *Configurator) SetTaskingParameters(parLR, parLoops, withIntermediateSync bool, tasksToSpawn int) error {
	if tasksToSpawn < 0 {
		return fmt.Errorf("%w: %d", parcore.ErrInvalidTaskCount, tasksToSpawn)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkConfigured(); err != nil {
		return err
	}
	c.rebuild(parLR, parLoops, withIntermediateSync, tasksToSpawn)
	return nil
}

// SetParameters applies all settings at once: the pool size, whether pairs
// run in parallel, whether pair chains synchronize after each step, and
// the number of tasks per loop. Loops run in parallel if tasksToSpawn > 0.
// Invalid values are rejected before anything changes.
func (c *Configurator) SetParameters(parallelism int, parLR, withIntermediateSync bool, tasksToSpawn int) error {
	p := Parameters{
		Parallelism:          parallelism,
		ParallelLR:           parLR,
		WithIntermediateSync: withIntermediateSync,
		TasksToSpawn:         tasksToSpawn,
	}
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkConfigured(); err != nil {
		return err
	}
	old, _, err := c.swapPool(parallelism)
	if err != nil {
		return err
	}
	c.rebuild(parLR, tasksToSpawn > 0, withIntermediateSync, tasksToSpawn)
	c.retire(old)
	return nil
}

// Shutdown removes the pool and the strategies, draining the pool within the
// grace period. Shutdown does nothing if c is not configured.
func (c *Configurator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != StateConfigured {
		return
	}
	old := c.pool.Swap(nil)
	c.current.Store(nil)
	c.state.Store(int32(StateShutdown))
	c.metrics.SetParallelism(0)
	c.retire(old)
	c.logger.Info("parallel execution shut down")
}

// Runner returns the active PairRunner.
func (c *Configurator) Runner() parcore.PairRunner {
	if s := c.current.Load(); s != nil {
		return s.runner
	}
	return sequential.Runner{}
}

// Splitter returns the active LoopSplitter.
func (c *Configurator) Splitter() parcore.LoopSplitter {
	if s := c.current.Load(); s != nil {
		return s.splitter
	}
	return sequential.Splitter{}
}

// SplitFor executes body for each chunk of the range from low to high with
// the active splitter.
func (c *Configurator) SplitFor(low, high int, body func(low, high int) error) error {
	return c.Splitter().SplitFor(low, high, body)
}

// RunOne executes action with the active runner.
func (c *Configurator) RunOne(action func() error) error {
	return c.Runner().RunOne(action)
}

// RunTwo executes first and second with the active runner.
func (c *Configurator) RunTwo(first, second func() error) error {
	return c.Runner().RunTwo(first, second)
}

// RunConditional executes the actions whose conditions are true with the
// active runner.
func (c *Configurator) RunConditional(cond1 bool, action1 func() error, cond2 bool, action2 func() error) error {
	return c.Runner().RunConditional(cond1, action1, cond2, action2)
}

// CallOn executes computation with the active runner of c.
func CallOn[T any](c *Configurator, computation func() (T, error)) (T, error) {
	return parcore.CallOne(c.Runner(), computation)
}

// SplitForReduceOn executes body for each chunk of the range from low to
// high with the active splitter of c, and merges the results in ascending
// chunk order.
func SplitForReduceOn[T any](
	c *Configurator,
	low, high int,
	body func(low, high int) (T, error),
	merge func(results []T) T,
) (T, error) {
	return parcore.SplitForReduce(c.Splitter(), low, high, body, merge)
}

// PairOn starts a chain of pair operations with the active runner of c.
// The chain executes each step immediately if the runner synchronizes
// intermediate steps, and defers all steps to ToPair otherwise.
func PairOn[T any](c *Configurator, left, right func() T) pair.Chain[T] {
	return pair.NewCreator[T](c.Runner()).Of(left, right)
}
