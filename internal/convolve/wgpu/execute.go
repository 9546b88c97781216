//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/dendrolab/ringscan/internal/convolve"
)

// Execute runs every step of job in one submission.
//
// RGBA8 pixels are stored as bytes in R, G, B, A order, which is exactly a
// little-endian packed u32 per pixel, so input and output need no repacking.
func (b *Backend) Execute(job *convolve.Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		return ErrNotReady
	}

	w, h := uint32(job.Width), uint32(job.Height) //nolint:gosec // tile sizes fit uint32
	size := uint64(w) * uint64(h) * 4
	if uint64(len(job.Input)) != size {
		return fmt.Errorf("wgpu: input has %d bytes, want %d", len(job.Input), size)
	}

	res := &jobResources{device: b.device}
	defer res.release()

	for i := 0; i < job.Targets; i++ {
		buf, err := res.buffer(fmt.Sprintf("convolve_target_%d", i), size,
			gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
		res.targets = append(res.targets, buf)
	}
	surface, err := res.buffer("convolve_surface", size, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return err
	}
	staging, err := res.buffer("convolve_staging", size, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(res.targets[0], 0, job.Input)

	bindGroups := make([]hal.BindGroup, 0, len(job.Steps))
	for i, s := range job.Steps {
		if s.Src < 0 || s.Src >= len(res.targets) || s.Dst >= len(res.targets) || s.Src == s.Dst {
			return fmt.Errorf("wgpu: step %d: bad targets %d -> %d", i, s.Src, s.Dst)
		}
		dst := surface
		if s.Dst != convolve.Surface {
			dst = res.targets[s.Dst]
		}
		bg, err := b.bindStep(res, job, s, res.targets[s.Src], dst, size)
		if err != nil {
			return fmt.Errorf("wgpu: step %d: %w", i, err)
		}
		bindGroups = append(bindGroups, bg)
	}

	if err := b.submit(bindGroups, surface, staging, w, h, size); err != nil {
		return err
	}

	if uint64(len(job.Output)) != size {
		job.Output = make([]uint8, size)
	}
	if err := b.queue.ReadBuffer(staging, 0, job.Output); err != nil {
		return fmt.Errorf("wgpu: readback: %w", err)
	}
	return nil
}

func (b *Backend) bindStep(res *jobResources, job *convolve.Job, s convolve.Step, src, dst hal.Buffer, size uint64) (hal.BindGroup, error) {
	ub, err := res.buffer("convolve_params", convolve.UniformSize,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(ub, 0, convolve.Uniforms(job.Width, job.Height, s.Params, job.Bounds))

	bg, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "convolve_bind", Layout: b.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: convolve.UniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: src.NativeHandle(), Offset: 0, Size: size}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: dst.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, bg)
	return bg, nil
}

// submit encodes one compute pass per step, with implicit storage barriers
// between passes, copies the surface to the staging buffer and waits.
func (b *Backend) submit(bindGroups []hal.BindGroup, surface, staging hal.Buffer, w, h uint32, size uint64) error {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "convolve_encoder"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("convolve"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	for _, bg := range bindGroups {
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "convolve_pass"})
		pass.SetPipeline(b.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch((w+7)/8, (h+7)/8, 1)
		pass.End()
	}
	encoder.CopyBufferToBuffer(surface, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)
	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := b.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wgpu: wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// jobResources tracks the buffers and bind groups of one job.
type jobResources struct {
	device     hal.Device
	targets    []hal.Buffer
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
}

func (r *jobResources) buffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s buffer: %w", label, err)
	}
	r.buffers = append(r.buffers, buf)
	return buf, nil
}

func (r *jobResources) release() {
	for _, bg := range r.bindGroups {
		r.device.DestroyBindGroup(bg)
	}
	for _, buf := range r.buffers {
		r.device.DestroyBuffer(buf)
	}
}
