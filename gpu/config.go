package gpu

import (
	"os"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// CheckedEnv is the environment variable that enables checked shader
// compilation when set (to any value).
const CheckedEnv = "RATCHET_CHECKED"

// MaxBufferSize is the buffer size limit requested from the adapter before
// falling back to default limits.
const MaxBufferSize uint64 = (2 << 29) - 1

// DefaultFenceTimeout bounds how long Dispatch waits for the GPU when the
// context carries no deadline.
const DefaultFenceTimeout = 5 * time.Second

// Config holds device configuration.
type Config struct {
	// Checked enables validation of WGSL through naga before the shader
	// module is created. Slower; use for debugging generated kernels.
	Checked bool

	// Backend is the HAL backend used to enumerate adapters.
	Backend gputypes.Backend

	// MaxBufferSize is the buffer size limit requested on device creation.
	MaxBufferSize uint64

	// FenceTimeout bounds GPU waits in Dispatch.
	FenceTimeout time.Duration
}

// DefaultConfig returns the production configuration: unchecked
// compilation on the Vulkan backend.
func DefaultConfig() Config {
	return Config{
		Backend:       gputypes.BackendVulkan,
		MaxBufferSize: MaxBufferSize,
		FenceTimeout:  DefaultFenceTimeout,
	}
}

// ConfigFromEnv returns DefaultConfig adjusted by the environment.
// Checked compilation is enabled when RATCHET_CHECKED is set.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if _, ok := os.LookupEnv(CheckedEnv); ok {
		cfg.Checked = true
	}
	return cfg
}

// Option configures a Device during creation.
//
// Example:
//
//	dev, err := gpu.NewDevice(gpu.WithChecked(true))
type Option func(*deviceOptions)

// deviceOptions holds optional configuration for Device creation.
type deviceOptions struct {
	config   Config
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
}

func defaultDeviceOptions() deviceOptions {
	return deviceOptions{config: ConfigFromEnv()}
}

// WithConfig replaces the whole configuration, including values read from
// the environment.
func WithConfig(cfg Config) Option {
	return func(o *deviceOptions) {
		o.config = cfg
	}
}

// WithChecked selects checked (true) or unchecked (false) shader compilation,
// overriding RATCHET_CHECKED.
func WithChecked(checked bool) Option {
	return func(o *deviceOptions) {
		o.config.Checked = checked
	}
}

// WithBackend selects the HAL backend used to find an adapter.
func WithBackend(b gputypes.Backend) Option {
	return func(o *deviceOptions) {
		o.config.Backend = b
	}
}

// WithMaxBufferSize sets the buffer size limit requested from the adapter.
func WithMaxBufferSize(size uint64) Option {
	return func(o *deviceOptions) {
		o.config.MaxBufferSize = size
	}
}

// WithFenceTimeout bounds GPU waits in Dispatch.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *deviceOptions) {
		o.config.FenceTimeout = d
	}
}

// WithInstance enumerates adapters from an existing HAL instance instead of
// creating one from the configured backend. The instance is not destroyed
// with the device.
func WithInstance(instance hal.Instance) Option {
	return func(o *deviceOptions) {
		o.instance = instance
	}
}

// WithHAL uses an existing HAL device and queue. Adapter selection is
// skipped and the device is not destroyed with the Device.
func WithHAL(device hal.Device, queue hal.Queue) Option {
	return func(o *deviceOptions) {
		o.device = device
		o.queue = queue
	}
}
