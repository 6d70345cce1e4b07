package pool

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/parcore"
	"github.com/exascience/parcore/internal"
)

func TestNew(t *testing.T) {
	t.Run("rejects non-positive parallelism", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			p, err := New(n)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, parcore.ErrInvalidParallelism)
		}
	})

	t.Run("creates running pool", func(t *testing.T) {
		p, err := New(3)
		require.NoError(t, err)
		assert.Equal(t, 3, p.Parallelism())
		assert.Equal(t, Running, p.State())
		assert.Equal(t, 0, p.InFlight())
		assert.NotEqual(t, p.ID(), mustNew(t, 3).ID())
	})
}

func mustNew(t *testing.T, parallelism int, opts ...Option) *Pool {
	t.Helper()
	p, err := New(parallelism, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Shutdown(time.Second) })
	return p
}

func TestJoinRunsAllTasks(t *testing.T) {
	p := mustNew(t, 4)
	results := make([]int, 16)
	tasks := make([]func(), len(results))
	for i := range tasks {
		i := i
		tasks[i] = func() { results[i] = i * i }
	}
	p.Join(tasks...)
	for i, r := range results {
		assert.Equal(t, i*i, r)
	}
	p.Join()
}

func TestJoinNestedDoesNotDeadlock(t *testing.T) {
	p := mustNew(t, 1)
	var fib func(int) int
	fib = func(n int) int {
		if n < 2 {
			return n
		}
		var n1, n2 int
		p.Join(
			func() { n1 = fib(n - 1) },
			func() { n2 = fib(n - 2) },
		)
		return n1 + n2
	}

	done := make(chan int)
	go func() { done <- fib(18) }()
	select {
	case r := <-done:
		assert.Equal(t, 2584, r)
	case <-time.After(10 * time.Second):
		t.Fatal("nested joins did not complete")
	}
}

func TestJoinPanicWaitsForSiblings(t *testing.T) {
	p := mustNew(t, 2)
	var finished atomic.Bool
	assert.Panics(t, func() {
		p.Join(
			func() { panic("boom") },
			func() {
				time.Sleep(20 * time.Millisecond)
				finished.Store(true)
			},
		)
	})
	assert.True(t, finished.Load())
}

func TestJoinPanicIsLeftMost(t *testing.T) {
	p := mustNew(t, 4)
	defer func() {
		r := recover()
		require.NotNil(t, r)
		s, ok := r.(string)
		require.True(t, ok)
		assert.Contains(t, s, "second")
	}()
	p.Join(
		func() {},
		func() { panic("second") },
		func() { panic("third") },
	)
}

func TestJoinOnNilPool(t *testing.T) {
	var p *Pool
	var order []int
	p.Join(
		func() { order = append(order, 0) },
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestShutdownDrains(t *testing.T) {
	p, err := New(2)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	joined := make(chan struct{})
	go func() {
		defer close(joined)
		p.Join(
			func() {},
			func() {
				close(started)
				<-release
			},
		)
	}()
	<-started
	assert.Equal(t, 1, p.InFlight())

	drained := make(chan bool)
	go func() { drained <- p.Shutdown(5 * time.Second) }()
	require.Eventually(t, func() bool { return p.State() == Draining }, time.Second, time.Millisecond)

	close(release)
	assert.True(t, <-drained)
	<-joined
	assert.Equal(t, Stopped, p.State())
	assert.Equal(t, 0, p.InFlight())
	assert.True(t, p.Shutdown(time.Second))
}

func TestShutdownAbandonsAfterGrace(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := internal.NewLogger(&lockedWriter{w: &buf, mu: &mu}, log.DebugLevel)
	p, err := New(2, WithLogger(logger))
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	joined := make(chan struct{})
	go func() {
		defer close(joined)
		p.Join(
			func() {},
			func() {
				close(started)
				<-release
			},
		)
	}()
	<-started

	assert.False(t, p.Shutdown(10*time.Millisecond))
	assert.Equal(t, Stopped, p.State())

	close(release)
	<-joined
	mu.Lock()
	assert.Contains(t, buf.String(), "pool did not drain in time")
	mu.Unlock()
}

func TestJoinAfterShutdownRunsInline(t *testing.T) {
	m := NewMetrics("test", "pool")
	p, err := New(4, WithMetrics(m))
	require.NoError(t, err)
	require.True(t, p.Shutdown(time.Second))

	var count atomic.Int32
	p.Join(
		func() { count.Add(1) },
		func() { count.Add(1) },
		func() { count.Add(1) },
	)
	assert.Equal(t, int32(3), count.Load())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TasksForked))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TasksInline))
}

func TestMetrics(t *testing.T) {
	m := NewMetrics("test", "pool")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))

	p := mustNew(t, 2, WithMetrics(m))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Parallelism))

	p.Join(func() {}, func() {})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksForked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksInline))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveWorkers))

	assert.Panics(t, func() { p.Join(func() { panic("x") }) })
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksPanicked))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "State(7)", State(7).String())
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
