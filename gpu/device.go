package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device is the compute device context. It owns the HAL device and queue
// and every pool of GPU objects created on them.
//
// Device is safe for concurrent use. All pools are released by Destroy.
type Device struct {
	mu        sync.Mutex
	config    Config
	name      string
	instance  hal.Instance // nil when not owned
	device    hal.Device
	queue     hal.Queue
	owned     bool
	destroyed bool

	buffers          *BufferPool
	bindGroupLayouts *BindGroupLayoutPool
	bindGroups       *BindGroupPool
	pipelineLayouts  *PipelineLayoutPool
	computePipelines *ComputePipelinePool
	kernelSources    *KernelSourcePool
}

// NewDevice acquires a compute device.
//
// Without WithHAL, adapters are enumerated from the configured backend (or
// the WithInstance instance) and the highest ranked one is opened with the
// configured buffer size limit. If that fails the device is requested once
// more with the adapter's own limits.
func NewDevice(opts ...Option) (*Device, error) {
	o := defaultDeviceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.config

	if o.device != nil {
		if o.queue == nil {
			return nil, &DeviceError{Adapter: "external", Err: fmt.Errorf("nil queue")}
		}
		return newDevice(cfg, "external", nil, o.device, o.queue, false), nil
	}

	instance := o.instance
	ownInstance := instance == nil
	if ownInstance {
		backend, ok := hal.GetBackend(cfg.Backend)
		if !ok {
			return nil, fmt.Errorf("%w: backend %v not available", ErrAdapterRequestFailed, cfg.Backend)
		}
		var err error
		instance, err = backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			return nil, fmt.Errorf("%w: create instance: %w", ErrAdapterRequestFailed, err)
		}
	}
	fail := func(err error) (*Device, error) {
		if ownInstance {
			instance.Destroy()
		}
		return nil, err
	}

	selected := selectAdapter(instance.EnumerateAdapters(nil))
	if selected == nil {
		return fail(ErrAdapterRequestFailed)
	}
	slogger().Info("gpu: selected adapter", "name", selected.Info.Name)

	device, queue, err := openWithFallback(func(limits gputypes.Limits) (hal.Device, hal.Queue, error) {
		od, err := selected.Adapter.Open(gputypes.Features(0), limits)
		if err != nil {
			return nil, nil, err
		}
		return od.Device, od.Queue, nil
	}, cfg.MaxBufferSize, adapterLimits(selected))
	if err != nil {
		return fail(&DeviceError{Adapter: selected.Info.Name, Err: err})
	}

	if !ownInstance {
		instance = nil
	}
	return newDevice(cfg, selected.Info.Name, instance, device, queue, true), nil
}

func newDevice(cfg Config, name string, instance hal.Instance, device hal.Device, queue hal.Queue, owned bool) *Device {
	d := &Device{
		config:   cfg,
		name:     name,
		instance: instance,
		device:   device,
		queue:    queue,
		owned:    owned,
	}
	d.buffers = newBufferPool(device)
	d.bindGroupLayouts = newBindGroupLayoutPool(device)
	d.bindGroups = newBindGroupPool(device, d.bindGroupLayouts, d.buffers)
	d.pipelineLayouts = newPipelineLayoutPool(device, d.bindGroupLayouts)
	d.kernelSources = newKernelSourcePool()
	d.computePipelines = newComputePipelinePool(device, cfg.Checked, d.pipelineLayouts, d.kernelSources)
	slogger().Info("gpu: device ready", "adapter", name, "checked", cfg.Checked)
	return d
}

// adapterRank orders adapters for compute work. Higher is better.
// Unknown device types rank above integrated GPUs.
func adapterRank(a *hal.ExposedAdapter) int {
	switch a.Info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		return 5
	case gputypes.DeviceTypeOther:
		return 4
	case gputypes.DeviceTypeIntegratedGPU:
		return 3
	case gputypes.DeviceTypeVirtualGPU:
		return 2
	case gputypes.DeviceTypeCPU:
		return 1
	default:
		return 0
	}
}

// selectAdapter returns the highest ranked adapter, the first on ties, or
// nil when there are none.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	var best *hal.ExposedAdapter
	for i := range adapters {
		if best == nil || adapterRank(&adapters[i]) > adapterRank(best) {
			best = &adapters[i]
		}
	}
	return best
}

// raisedLimits returns the default limits with the buffer size and the
// storage binding size raised to maxBuffer.
func raisedLimits(maxBuffer uint64) gputypes.Limits {
	limits := gputypes.DefaultLimits()
	limits.MaxBufferSize = max(limits.MaxBufferSize, maxBuffer)
	limits.MaxStorageBufferBindingSize = max(limits.MaxStorageBufferBindingSize, maxBuffer)
	return limits
}

// adapterLimits returns the limits the adapter reports, or the defaults
// when it reports none.
func adapterLimits(a *hal.ExposedAdapter) gputypes.Limits {
	if a.Capabilities.Limits.MaxBufferSize == 0 {
		return gputypes.DefaultLimits()
	}
	return a.Capabilities.Limits
}

// openWithFallback requests a device with raised buffer limits, then once
// more with the adapter's own limits if that fails.
func openWithFallback(open func(gputypes.Limits) (hal.Device, hal.Queue, error), maxBuffer uint64, fallback gputypes.Limits) (hal.Device, hal.Queue, error) {
	device, queue, err := open(raisedLimits(maxBuffer))
	if err == nil {
		return device, queue, nil
	}

	slogger().Warn("gpu: device request failed, retrying with adapter limits",
		"max_buffer_size", maxBuffer, "err", err)
	device, queue, err2 := open(fallback)
	if err2 != nil {
		return nil, nil, fmt.Errorf("with raised limits: %w; with adapter limits: %w", err, err2)
	}
	return device, queue, nil
}

// Name returns the adapter name, or "external" for injected devices.
func (d *Device) Name() string { return d.name }

// Config returns the configuration the device was created with.
func (d *Device) Config() Config { return d.config }

// HAL returns the underlying HAL device.
func (d *Device) HAL() hal.Device { return d.device }

// Queue returns the command submission queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// Buffers returns the buffer pool.
func (d *Device) Buffers() *BufferPool { return d.buffers }

// BindGroupLayouts returns the bind group layout pool.
func (d *Device) BindGroupLayouts() *BindGroupLayoutPool { return d.bindGroupLayouts }

// BindGroups returns the bind group pool.
func (d *Device) BindGroups() *BindGroupPool { return d.bindGroups }

// PipelineLayouts returns the pipeline layout pool.
func (d *Device) PipelineLayouts() *PipelineLayoutPool { return d.pipelineLayouts }

// ComputePipelines returns the compute pipeline pool.
func (d *Device) ComputePipelines() *ComputePipelinePool { return d.computePipelines }

// KernelSources returns the generated kernel source pool.
func (d *Device) KernelSources() *KernelSourcePool { return d.kernelSources }

// CreateBufferInit returns the pooled buffer for desc and uploads contents
// into it. It does not wait for the buffer pool lock: when another
// goroutine holds it, ErrResourceUnavailable is returned.
func (d *Device) CreateBufferInit(desc BufferDescriptor, contents []byte) (BufferHandle, error) {
	if err := d.checkLive(); err != nil {
		return BufferHandle{}, err
	}
	if desc.Size < uint64(len(contents)) {
		desc.Size = uint64(len(contents))
	}
	h, err := d.buffers.TryGetOrCreate(desc)
	if err != nil {
		return BufferHandle{}, err
	}
	if err := d.WriteBuffer(h, contents); err != nil {
		return BufferHandle{}, err
	}
	return h, nil
}

// WriteBuffer uploads data to the start of buffer h.
func (d *Device) WriteBuffer(h BufferHandle, data []byte) error {
	if err := d.checkLive(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	bufs := d.buffers.Resources()
	defer bufs.Release()
	if err := d.queue.WriteBuffer(bufs.Get(h), 0, data); err != nil {
		return fmt.Errorf("gpu: write buffer %s: %w", h, err)
	}
	return nil
}

func (d *Device) checkLive() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return ErrDeviceDestroyed
	}
	return nil
}

// Destroy releases every pooled object in dependency order and then the
// HAL device and instance if the Device owns them. Handles issued by the
// pools are invalid afterwards. Destroy is idempotent.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	d.destroyed = true

	d.computePipelines.destroy()
	d.kernelSources.destroy()
	d.pipelineLayouts.destroy()
	d.bindGroups.destroy()
	d.bindGroupLayouts.destroy()
	d.buffers.destroy()

	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.instance = nil
	slogger().Debug("gpu: device destroyed", "adapter", d.name)
}
