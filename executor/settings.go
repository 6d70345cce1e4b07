package executor

// Settings is a read-only view of the configuration of a Configurator.
type Settings struct {
	// Initialized is true if the configurator is configured.
	Initialized bool

	// Parallelism is the size of the current pool, or 0 without pool.
	Parallelism int

	// TasksToSpawn is the configured number of chunks per loop.
	TasksToSpawn int

	ParallelLR           bool
	ParallelLoops        bool
	WithIntermediateSync bool

	// MaxParallelism is the hardware parallelism.
	MaxParallelism int
}

// MaxTasksToSpawn returns the upper bound that is recommended for
// TasksToSpawn.
func (s Settings) MaxTasksToSpawn() int {
	return 8 * s.MaxParallelism
}

// Settings returns a snapshot of the current configuration.
func (c *Configurator) Settings() Settings {
	settings := Settings{
		Initialized:    c.State() == StateConfigured,
		MaxParallelism: c.hardware(),
	}
	if s := c.current.Load(); s != nil {
		settings.Parallelism = s.parallelism
		settings.TasksToSpawn = s.tasksToSpawn
		settings.ParallelLR = s.parLR
		settings.ParallelLoops = s.parLoops
		settings.WithIntermediateSync = s.withIntermediateSync
	}
	return settings
}
