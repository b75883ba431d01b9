package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// noopInstance returns a noop HAL instance destroyed at test end.
func noopInstance(t *testing.T) hal.Instance {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	t.Cleanup(func() { instance.Destroy() })
	return instance
}

// newTestDevice opens a Device on the noop backend in unchecked mode.
func newTestDevice(t *testing.T, opts ...Option) *Device {
	t.Helper()
	opts = append([]Option{WithInstance(noopInstance(t)), WithChecked(false)}, opts...)
	dev, err := NewDevice(opts...)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	t.Cleanup(dev.Destroy)
	return dev
}
