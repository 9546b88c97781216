//go:build nogpu

// Package gpu is empty in nogpu builds; pipelines use the CPU backend.
package gpu

import "github.com/gogpu/gpucontext"

// SetDeviceProvider does nothing in nogpu builds.
func SetDeviceProvider(gpucontext.DeviceProvider) {}
