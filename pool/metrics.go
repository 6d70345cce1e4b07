package pool

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors. A nil *Metrics is valid and reports
// nothing.
type Metrics struct {
	TasksForked   prometheus.Counter
	TasksInline   prometheus.Counter
	TasksPanicked prometheus.Counter
	ActiveWorkers prometheus.Gauge
	Parallelism   prometheus.Gauge
	TaskLatency   prometheus.Histogram
}

// NewMetrics creates Prometheus collectors for pools. They still need to be
// registered, see Register.
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		TasksForked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_forked_total",
			Help:      "Total number of tasks executed on a worker slot",
		}),
		TasksInline: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_inline_total",
			Help:      "Total number of tasks executed in the joining goroutine",
		}),
		TasksPanicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_panicked_total",
			Help:      "Total number of tasks that panicked",
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_workers",
			Help:      "Current number of occupied worker slots",
		}),
		Parallelism: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "parallelism",
			Help:      "Configured parallelism of the most recently created pool",
		}),
		TaskLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "task_latency_seconds",
			Help:      "Histogram of task execution latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Collectors returns all collectors of m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TasksForked,
		m.TasksInline,
		m.TasksPanicked,
		m.ActiveWorkers,
		m.Parallelism,
		m.TaskLatency,
	}
}

// Register registers all collectors of m with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register pool metrics: %w", err)
		}
	}
	return nil
}

// SetParallelism sets the parallelism gauge. It is a no-op on a nil *Metrics.
func (m *Metrics) SetParallelism(n int) {
	if m != nil {
		m.Parallelism.Set(float64(n))
	}
}

func (m *Metrics) started(forked bool) {
	if m == nil {
		return
	}
	if forked {
		m.TasksForked.Inc()
		m.ActiveWorkers.Inc()
	} else {
		m.TasksInline.Inc()
	}
}

func (m *Metrics) finished(forked bool, d time.Duration) {
	if m == nil {
		return
	}
	if forked {
		m.ActiveWorkers.Dec()
	}
	m.TaskLatency.Observe(d.Seconds())
}

func (m *Metrics) panicked() {
	if m != nil {
		m.TasksPanicked.Inc()
	}
}
