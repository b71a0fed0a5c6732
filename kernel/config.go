package kernel

// TaskConfig statically configures one task (spec §3: entry point,
// parameter, priority, stack, initial activation). There is no API to
// configure a task after [New] returns, and no API to add one (spec §1
// Non-goals: no dynamic task creation).
type TaskConfig struct {
	Entry      TaskEntry
	Param      uintptr
	Priority   int
	Stack      StackRegion
	Activated  bool // start PendingActivation rather than Dormant
}

// config accumulates the options passed to [New]. It is unexported:
// callers build one only through functional options, following the
// teacher's LoopOption pattern in place of an exported, partially-zeroable
// struct literal.
type config struct {
	numPriorities int
	tasks         []TaskConfig
	numInterrupts int
	logger        Logger
	hunkPool      *HunkPool
}

// Option configures a [System] at construction time, following the same
// functional-options shape as the teacher's eventloop.LoopOption.
type Option func(*config)

// WithTask registers one statically configured task. Tasks are assigned
// IDs in the order WithTask options are applied.
func WithTask(tc TaskConfig) Option {
	return func(c *config) { c.tasks = append(c.tasks, tc) }
}

// WithPriorities sets the number of distinct priority levels the ready
// queue and wait queues support. Defaults to 32 if never set.
func WithPriorities(n int) Option {
	return func(c *config) { c.numPriorities = n }
}

// WithInterruptLines sets the number of interrupt lines the kernel's
// [InterruptController] manages. Defaults to [DefaultNumInterruptLines].
func WithInterruptLines(n int) Option {
	return func(c *config) { c.numInterrupts = n }
}

// WithLogger installs a structured logger, receiving the kernel's lifecycle
// events (boot, and task activation requests). The
// zero value logs nothing; see [NewStumpyLogger] for the default
// production backend.
func WithLogger(l Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithHunkPool binds p as the system's hunk pool (spec §3 Hunk Pool):
// every hunk must be carved via [HunkPool.Carve] before passing p here, and
// [System.Boot] runs each hunk's initializer exactly once, before any task
// runs. Without this option, a system has no hunk pool and
// [System.HunkPool] returns nil.
func WithHunkPool(p *HunkPool) Option {
	return func(c *config) { c.hunkPool = p }
}

func defaultConfig() config {
	return config{
		numPriorities: 32,
		numInterrupts: DefaultNumInterruptLines,
		logger:        discardLogger(),
	}
}
