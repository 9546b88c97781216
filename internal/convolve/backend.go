package convolve

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrFallbackToCPU indicates a backend cannot run and the CPU backend
// should be used instead.
var ErrFallbackToCPU = errors.New("convolve: falling back to CPU backend")

// Surface is the Step destination index of the visible output surface.
const Surface = -1

// Step is one pass of a Job: read target Src, write target Dst.
type Step struct {
	Src, Dst int
	Params   PassParams
}

// Job is one render call. Input is loaded into target 0 with rows stored
// bottom-up. The last step writes to Surface, whose rows come out top-down
// in Output.
type Job struct {
	Width, Height int
	Targets       int // pool size
	Input         []uint8
	Steps         []Step
	Bounds        Bounds
	Output        []uint8
}

// Backend executes convolution jobs.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// Init acquires device resources. An error makes the pipeline fall back
	// to the CPU backend.
	Init() error

	// SetProgram installs a compiled SPIR-V program. Backends that cannot
	// run custom programs return ErrFallbackToCPU and keep the built-in one.
	SetProgram(spirv []uint32) error

	// Execute runs every step of job in order and fills job.Output.
	Execute(job *Job) error

	// Close releases device resources.
	Close()
}

var (
	backendMu sync.RWMutex
	backends  = map[string]func() Backend{}
)

// RegisterBackend makes a backend constructor available under name.
// Registering the same name again replaces the constructor.
//
// GPU backends register themselves via blank import:
//
//	import _ "github.com/dendrolab/ringscan/gpu"
func RegisterBackend(name string, factory func() Backend) {
	if factory == nil {
		panic("convolve: RegisterBackend factory is nil")
	}
	backendMu.Lock()
	backends[name] = factory
	backendMu.Unlock()
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newBackend creates and initializes the named backend. An empty name picks
// the first registered non-CPU backend. Any failure falls back to CPU.
func newBackend(name string, workers int) (Backend, error) {
	if name == "" {
		for _, n := range Backends() {
			if n != CPUBackendName {
				name = n
				break
			}
		}
	}
	if name == "" || name == CPUBackendName {
		return newCPUBackend(workers), nil
	}

	backendMu.RLock()
	factory, ok := backends[name]
	backendMu.RUnlock()
	if !ok {
		return newCPUBackend(workers), fmt.Errorf("%w: backend %q not registered", ErrFallbackToCPU, name)
	}
	b := factory()
	if err := b.Init(); err != nil {
		b.Close()
		return newCPUBackend(workers), fmt.Errorf("%w: %s init: %v", ErrFallbackToCPU, name, err)
	}
	return b, nil
}
