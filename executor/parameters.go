package executor

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/exascience/parcore"
)

// DefaultGracePeriod is how long a replaced or shut down pool may take to
// drain before it is abandoned.
const DefaultGracePeriod = 5 * time.Second

// Parameters holds the tunable settings of a Configurator. Parameters can be
// decoded from TOML:
//
//	parallelism = 8
//	parallel_lr = true
//	with_intermediate_sync = false
//	tasks_to_spawn = 7
//	grace_period = "2s"
//	log_level = "info"
type Parameters struct {
	// Parallelism is the size of the worker pool. 0 disables parallel
	// execution.
	Parallelism int `toml:"parallelism"`

	// ParallelLR enables parallel execution of the two actions of RunTwo.
	ParallelLR bool `toml:"parallel_lr"`

	// WithIntermediateSync makes pair chains synchronize after each step.
	WithIntermediateSync bool `toml:"with_intermediate_sync"`

	// TasksToSpawn is the number of chunks ranges are divided into. 0
	// disables parallel loops.
	TasksToSpawn int `toml:"tasks_to_spawn"`

	// GracePeriod overrides the configured grace period if positive.
	GracePeriod time.Duration `toml:"grace_period"`

	// LogLevel overrides the level of the configured logger if not empty.
	// This also affects a logger that was passed to WithLogger.
	LogLevel string `toml:"log_level"`
}

// DefaultParameters derives parameters from the hardware parallelism: a pool
// of that size, and one task less than that per loop. Both are 0 if they
// would be less than 2, because a single worker or chunk has no benefit
// over sequential execution.
func DefaultParameters(hardware int) Parameters {
	parallelism := hardware
	if parallelism < 2 {
		parallelism = 0
	}
	tasks := hardware - 1
	if tasks < 2 {
		tasks = 0
	}
	return Parameters{
		Parallelism:          parallelism,
		ParallelLR:           true,
		WithIntermediateSync: true,
		TasksToSpawn:         tasks,
	}
}

// Validate checks that p can be applied.
func (p Parameters) Validate() error {
	if p.Parallelism < 0 {
		return fmt.Errorf("%w: %d", parcore.ErrInvalidParallelism, p.Parallelism)
	}
	if p.TasksToSpawn < 0 {
		return fmt.Errorf("%w: %d", parcore.ErrInvalidTaskCount, p.TasksToSpawn)
	}
	if p.GracePeriod < 0 {
		return fmt.Errorf("invalid grace period: %v", p.GracePeriod)
	}
	if p.LogLevel != "" {
		if _, err := log.ParseLevel(p.LogLevel); err != nil {
			return fmt.Errorf("invalid log level %q: %w", p.LogLevel, err)
		}
	}
	return nil
}

// ParseParameters decodes TOML data on top of base. Keys that are missing
// from data keep their values from base.
func ParseParameters(data string, base Parameters) (Parameters, error) {
	p := base
	if _, err := toml.Decode(data, &p); err != nil {
		return base, fmt.Errorf("decode parameters: %w", err)
	}
	if err := p.Validate(); err != nil {
		return base, err
	}
	return p, nil
}

// LoadParameters decodes the TOML file at path on top of base.
func LoadParameters(path string, base Parameters) (Parameters, error) {
	p := base
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return base, fmt.Errorf("load parameters from %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return base, fmt.Errorf("load parameters from %s: %w", path, err)
	}
	return p, nil
}
