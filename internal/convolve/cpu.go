package convolve

import (
	"fmt"
	"sync"

	"github.com/dendrolab/ringscan/internal/parallel"
)

// CPUBackendName is the registry name of the CPU backend.
const CPUBackendName = "cpu"

func init() {
	RegisterBackend(CPUBackendName, func() Backend { return NewCPUBackend(0) })
}

// CPUBackend runs the built-in convolution on the CPU, splitting rows into
// bands across a worker pool. Output is deterministic for any worker count.
type CPUBackend struct {
	mu      sync.Mutex
	workers int
	pool    *parallel.WorkerPool
	targets [][]uint8
}

// NewCPUBackend creates a CPU backend. workers <= 0 uses GOMAXPROCS.
func NewCPUBackend(workers int) *CPUBackend {
	return &CPUBackend{workers: workers}
}

// Name returns "cpu".
func (b *CPUBackend) Name() string { return CPUBackendName }

// Init starts the worker pool.
func (b *CPUBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool == nil {
		b.pool = parallel.NewWorkerPool(b.workers)
	}
	return nil
}

// SetProgram always returns ErrFallbackToCPU: the CPU backend only runs the
// built-in convolution.
func (b *CPUBackend) SetProgram([]uint32) error {
	return ErrFallbackToCPU
}

// Execute runs job on the CPU.
func (b *CPUBackend) Execute(job *Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool == nil {
		b.pool = parallel.NewWorkerPool(b.workers)
	}

	w, h := job.Width, job.Height
	if job.Targets < 2 {
		return fmt.Errorf("convolve: pool of %d targets, need at least 2", job.Targets)
	}
	size := w * h * 4
	if len(job.Input) != size {
		return fmt.Errorf("convolve: input has %d bytes, want %d", len(job.Input), size)
	}
	b.resize(job.Targets, size)
	copy(b.targets[0], job.Input)

	if len(job.Output) != size {
		job.Output = make([]uint8, size)
	}
	for i, s := range job.Steps {
		if s.Src < 0 || s.Src >= len(b.targets) || s.Dst >= len(b.targets) || s.Dst == s.Src {
			return fmt.Errorf("convolve: step %d: bad targets %d -> %d", i, s.Src, s.Dst)
		}
		src := b.targets[s.Src]
		dst := job.Output
		if s.Dst != Surface {
			dst = b.targets[s.Dst]
		}
		p := s.Params
		b.pool.Bands(h, func(lo, hi int) {
			convolveRows(dst, src, w, h, lo, hi, &p)
		})
	}
	return nil
}

func newCPUBackend(workers int) Backend {
	b := NewCPUBackend(workers)
	_ = b.Init()
	return b
}

// Close stops the worker pool.
func (b *CPUBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
	b.targets = nil
}

func (b *CPUBackend) resize(n, size int) {
	if len(b.targets) != n {
		b.targets = make([][]uint8, n)
	}
	for i := range b.targets {
		if len(b.targets[i]) != size {
			b.targets[i] = make([]uint8, size)
		}
	}
}

// convolveRows computes rows [lo, hi) of one pass. Sampling clamps to the edge.
func convolveRows(dst, src []uint8, w, h, lo, hi int, p *PassParams) {
	const inv255 = float32(1) / 255
	k := &p.Kernel
	s := p.Strength
	for y := lo; y < hi; y++ {
		out := y
		if p.FlipY {
			out = h - 1 - y
		}
		for x := 0; x < w; x++ {
			var sr, sg, sb float32
			for dy := -1; dy <= 1; dy++ {
				yy := min(max(y+dy, 0), h-1)
				for dx := -1; dx <= 1; dx++ {
					xx := min(max(x+dx, 0), w-1)
					kv := k[(dy+1)*3+(dx+1)]
					i := (yy*w + xx) * 4
					sr += float32(src[i]) * inv255 * kv
					sg += float32(src[i+1]) * inv255 * kv
					sb += float32(src[i+2]) * inv255 * kv
				}
			}
			i := (y*w + x) * 4
			or := float32(src[i]) * inv255
			og := float32(src[i+1]) * inv255
			ob := float32(src[i+2]) * inv255

			j := (out*w + x) * 4
			dst[j] = pack(or*(1-s) + sr/p.Weight*s)
			dst[j+1] = pack(og*(1-s) + sg/p.Weight*s)
			dst[j+2] = pack(ob*(1-s) + sb/p.Weight*s)
			dst[j+3] = 0xff
		}
	}
}

func pack(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
