//go:build !nogpu

// Package wgpu runs convolution passes as compute shaders on the gogpu/wgpu
// HAL. Each target of the pass pool is a storage buffer of packed RGBA8
// pixels; one compute pass is encoded per filter pass and the whole chain is
// submitted once, then the surface buffer is read back.
package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/dendrolab/ringscan/internal/convolve"
	"github.com/dendrolab/ringscan/internal/logging"
)

// Name is the registry name of the backend.
const Name = "wgpu"

// fenceTimeout bounds the wait for one submitted job.
const fenceTimeout = 5 * time.Second

// ErrNotReady is returned by Execute before a device is available.
var ErrNotReady = errors.New("wgpu: backend not initialized")

// Backend is a convolve.Backend on a Vulkan device.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	spirv    []uint32 // custom program; nil runs the embedded WGSL
	ready    bool
	external bool // device is shared, do not destroy it
}

var _ convolve.Backend = (*Backend)(nil)

// New returns an uninitialized backend.
func New() *Backend { return &Backend{} }

// Name returns "wgpu".
func (b *Backend) Name() string { return Name }

// Init opens a device on the first discrete or integrated adapter.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready {
		return nil
	}
	return b.initGPU()
}

// SetProgram replaces the compute program with compiled SPIR-V.
func (b *Backend) SetProgram(spirv []uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spirv = spirv
	if b.device == nil {
		return nil
	}
	b.destroyPipelines()
	if err := b.createPipelines(); err != nil {
		b.ready = false
		return err
	}
	b.ready = true
	return nil
}

// SetDeviceProvider switches the backend to a GPU device shared with the
// host. The provider must also expose HalDevice() and HalQueue() returning
// hal.Device and hal.Queue.
func (b *Backend) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return errors.New("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return errors.New("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return errors.New("wgpu: provider HalQueue is not hal.Queue")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.destroyPipelines()
	b.releaseDevice()

	b.device = device
	b.queue = queue
	b.external = true

	if err := b.createPipelines(); err != nil {
		b.ready = false
		return fmt.Errorf("wgpu: create pipelines with shared device: %w", err)
	}
	b.ready = true
	logging.Logger().Info("wgpu: switched to shared GPU device")
	return nil
}

// Close releases every GPU resource the backend owns.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyPipelines()
	b.releaseDevice()
	b.ready = false
}

func (b *Backend) releaseDevice() {
	if !b.external {
		if b.device != nil {
			b.device.Destroy()
		}
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	b.device = nil
	b.queue = nil
	b.instance = nil
	b.external = false
}

func (b *Backend) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	b.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		b.releaseDevice()
		return errors.New("no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		b.releaseDevice()
		return fmt.Errorf("open device: %w", err)
	}
	b.device = openDev.Device
	b.queue = openDev.Queue

	if err := b.createPipelines(); err != nil {
		b.releaseDevice()
		return fmt.Errorf("create pipelines: %w", err)
	}
	b.ready = true
	logging.Logger().Info("wgpu: convolution backend initialized", "adapter", selected.Info.Name)
	return nil
}

func (b *Backend) createPipelines() error {
	source := hal.ShaderSource{WGSL: convolve.DefaultUniforms + "\n" + convolve.DefaultProgram}
	if b.spirv != nil {
		source = hal.ShaderSource{SPIRV: b.spirv}
	}
	shader, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "convolve",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}
	b.shader = shader

	bindLayout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "convolve_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	b.bindLayout = bindLayout

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "convolve_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	b.pipeLayout = pipeLayout

	pipeline, err := b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "convolve_pipeline", Layout: b.pipeLayout,
		Compute: hal.ComputeState{Module: b.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	b.pipeline = pipeline
	return nil
}

func (b *Backend) destroyPipelines() {
	if b.device == nil {
		return
	}
	if b.pipeline != nil {
		b.device.DestroyComputePipeline(b.pipeline)
		b.pipeline = nil
	}
	if b.pipeLayout != nil {
		b.device.DestroyPipelineLayout(b.pipeLayout)
		b.pipeLayout = nil
	}
	if b.bindLayout != nil {
		b.device.DestroyBindGroupLayout(b.bindLayout)
		b.bindLayout = nil
	}
	if b.shader != nil {
		b.device.DestroyShaderModule(b.shader)
		b.shader = nil
	}
}
