//go:build !nogpu

// Package gpu registers the wgpu convolution backend.
//
// Import this package to run the enhancement passes as compute shaders:
//
//	import _ "github.com/dendrolab/ringscan/gpu"
//
// Pipelines created without an explicit backend then try the GPU first. If
// GPU initialization fails (no Vulkan device available) they log a warning
// and fall back to the CPU backend.
package gpu

import (
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/dendrolab/ringscan/internal/convolve"
	"github.com/dendrolab/ringscan/internal/convolve/wgpu"
	"github.com/dendrolab/ringscan/internal/logging"
)

var (
	sharedMu sync.Mutex
	shared   gpucontext.DeviceProvider
)

func init() {
	convolve.RegisterBackend(wgpu.Name, func() convolve.Backend {
		b := wgpu.New()
		sharedMu.Lock()
		provider := shared
		sharedMu.Unlock()
		if provider != nil {
			if err := b.SetDeviceProvider(provider); err != nil {
				logging.Logger().Warn("gpu: shared device rejected, opening own device", "err", err)
			}
		}
		return b
	})
}

// SetDeviceProvider makes backends created afterwards reuse the host's GPU
// device instead of opening their own. The provider must also expose
// HalDevice() and HalQueue().
func SetDeviceProvider(provider gpucontext.DeviceProvider) {
	sharedMu.Lock()
	shared = provider
	sharedMu.Unlock()
}
