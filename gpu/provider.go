package gpu

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// errProviderNotHAL is returned when a provider does not expose its HAL
// device and queue.
var errProviderNotHAL = errors.New("gpu: provider does not expose HAL types")

// NewDeviceFromProvider builds a Device on a GPU device shared by another
// component, for example a gogpu application. The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
// The shared device is not destroyed by Destroy.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, errProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, errProviderNotHAL
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, errProviderNotHAL
	}
	return NewDevice(append(opts, WithHAL(device, queue))...)
}
