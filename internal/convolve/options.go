package convolve

// DefaultPoolSize is the number of off-screen targets in the pass pool.
const DefaultPoolSize = 6

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	backendName string
	backend     Backend
	poolSize    int
	workers     int
}

func defaultOptions() options {
	return options{poolSize: DefaultPoolSize}
}

// WithBackend selects a registered backend by name. An empty name picks the
// first registered GPU backend when one is available.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithBackendInstance uses b directly instead of the registry.
// The pipeline calls b.Init and takes ownership of b.
func WithBackendInstance(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithPoolSize sets the number of off-screen targets. Values below 2 are
// raised to 2 so a pass never reads and writes the same target.
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = max(n, 2)
	}
}

// WithWorkers sets the worker count of the CPU backend.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
