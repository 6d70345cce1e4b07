/*
Package pool provides the bounded worker pool that backs parallel
execution in parcore.

A Pool does not queue work. Join hands each task except the first to a
worker slot if one is free at that moment, and otherwise executes the
task in the calling goroutine. The caller always participates in the
work of its own join. Consequently, joins nested inside pool tasks never
wait for a slot and cannot starve the pool, no matter how deeply they
recurse or how small the pool is.

A Pool moves through three states:

	Running  -> Draining   [Shutdown]
	Draining -> Stopped    [all forked tasks terminated, or grace period expired]

Joins on a pool that is not running execute all their tasks in the
calling goroutine, so computations that captured a pool before it was
shut down still complete correctly.
*/
package pool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/exascience/parcore"
	"github.com/exascience/parcore/internal"
)

// State represents pool lifecycle states.
type State int32

const (
	Running State = iota
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// An Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger for lifecycle messages.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics makes the pool report to m. Metrics can be shared between
// pools, for example between successive generations of a resized pool.
func WithMetrics(m *Metrics) Option {
	return func(p *Pool) {
		p.metrics = m
	}
}

// Pool is a fixed-size fork-join worker pool.
type Pool struct {
	id          uuid.UUID
	parallelism int
	slots       chan struct{}
	state       atomic.Int32

	mu       sync.Mutex
	inFlight int
	idle     chan struct{}

	logger  *log.Logger
	metrics *Metrics
}

// New creates a pool that executes up to parallelism forked tasks at the
// same time. New returns an error wrapping parcore.ErrInvalidParallelism if
// parallelism < 1.
func New(parallelism int, opts ...Option) (*Pool, error) {
	if parallelism < 1 {
		return nil, fmt.Errorf("%w: %d", parcore.ErrInvalidParallelism, parallelism)
	}
	p := &Pool{
		id:          uuid.New(),
		parallelism: parallelism,
		slots:       make(chan struct{}, parallelism),
		logger:      internal.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.state.Store(int32(Running))
	p.metrics.SetParallelism(parallelism)
	p.logger.Debug("pool created", "pool", p.id, "parallelism", parallelism)
	return p, nil
}

// ID returns the unique identifier of this pool.
func (p *Pool) ID() uuid.UUID {
	return p.id
}

// Parallelism returns the configured degree of parallelism.
func (p *Pool) Parallelism() int {
	return p.parallelism
}

// State returns the current lifecycle state.
func (p *Pool) State() State {
	return State(p.state.Load())
}

// InFlight returns the number of forked tasks that have not terminated yet.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Stats is a snapshot of the state of a pool.
type Stats struct {
	ID          uuid.UUID
	Parallelism int
	State       State
	InFlight    int
}

// Stats returns a snapshot of the pool state.
func (p *Pool) Stats() Stats {
	return Stats{
		ID:          p.id,
		Parallelism: p.parallelism,
		State:       p.State(),
		InFlight:    p.InFlight(),
	}
}

func (p *Pool) tryAcquire() bool {
	if p == nil || p.State() != Running {
		return false
	}
	select {
	case p.slots <- struct{}{}:
	default:
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.State() != Running {
		<-p.slots
		return false
	}
	p.inFlight++
	return true
}

func (p *Pool) release() {
	<-p.slots
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight--
	if p.inFlight == 0 && p.idle != nil {
		close(p.idle)
		p.idle = nil
	}
}

func (p *Pool) execute(task func(), forked bool) (panicValue interface{}) {
	var m *Metrics
	if p != nil {
		m = p.metrics
	}
	start := time.Now()
	m.started(forked)
	defer func() {
		m.finished(forked, time.Since(start))
		if r := recover(); r != nil {
			m.panicked()
			panicValue = internal.WrapPanic(r)
		}
	}()
	task()
	return nil
}

/*
Join executes the given tasks and returns only when all of them have
terminated.

The first task is executed in the calling goroutine. Each other task is
executed in its own goroutine if a worker slot is free, and otherwise in
the calling goroutine after the first task. The relative order of forked
tasks is unspecified.

If one or more tasks panic, Join still waits for all tasks to terminate,
and then panics with the left-most recovered panic value, enriched with
stack trace information.

Join can be called on a nil *Pool, in which case all tasks are executed
sequentially in the calling goroutine, with the same panic semantics.
*/
func (p *Pool) Join(tasks ...func()) {
	if len(tasks) == 0 {
		return
	}
	panics := make([]interface{}, len(tasks))
	var wg sync.WaitGroup
	var inline []int
	for i := len(tasks) - 1; i > 0; i-- {
		if !p.tryAcquire() {
			inline = append(inline, i)
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer p.release()
			panics[i] = p.execute(tasks[i], true)
		}(i)
	}
	panics[0] = p.execute(tasks[0], false)
	for j := len(inline) - 1; j >= 0; j-- {
		i := inline[j]
		panics[i] = p.execute(tasks[i], false)
	}
	wg.Wait()
	for _, pv := range panics {
		if pv != nil {
			panic(pv)
		}
	}
}

/*
Shutdown stops the pool from accepting new forked tasks and waits up to
grace for the forked tasks that are still running.

Shutdown reports whether the pool drained within the grace period. If it
did not, the pool is marked as stopped anyway and the remaining tasks are
abandoned: they keep running to completion in their goroutines, and the
joins that forked them still wait for them, but the pool no longer tracks
them. Goroutines cannot be terminated from the outside.

Calling Shutdown on a pool that is not running reports whether it is idle.
*/
func (p *Pool) Shutdown(grace time.Duration) bool {
	p.mu.Lock()
	if p.State() != Running {
		drained := p.inFlight == 0
		p.mu.Unlock()
		return drained
	}
	p.state.Store(int32(Draining))
	var idle chan struct{}
	pending := p.inFlight
	if pending > 0 {
		idle = make(chan struct{})
		p.idle = idle
	}
	p.mu.Unlock()

	p.logger.Debug("pool draining", "pool", p.id, "in_flight", pending, "grace", grace)
	if idle != nil {
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-idle:
		case <-timer.C:
			p.state.Store(int32(Stopped))
			p.logger.Warn("pool did not drain in time, abandoning tasks",
				"pool", p.id, "in_flight", p.InFlight(), "grace", grace)
			return false
		}
	}
	p.state.Store(int32(Stopped))
	p.logger.Debug("pool stopped", "pool", p.id)
	return true
}
