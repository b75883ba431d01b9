package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ratchet/internal/pool"
)

// minBufferSize is the smallest buffer the pool allocates. Zero-sized
// storage bindings are invalid in WGSL.
const minBufferSize = 4

// BufferDescriptor describes a pooled GPU buffer.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// StorageUsage is the usage of tensor data that is written from the host and read
// back after a dispatch.
const StorageUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc

// UniformUsage is the usage of op metadata buffers.
const UniformUsage = gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst

// BufferPool caches GPU buffers by descriptor.
type BufferPool struct {
	device hal.Device
	inner  *pool.Pool[BufferDescriptor, hal.Buffer]
}

func newBufferPool(device hal.Device) *BufferPool {
	return &BufferPool{
		device: device,
		inner:  pool.New[BufferDescriptor, hal.Buffer](),
	}
}

// allocSize is the size actually allocated for desc.
func (desc BufferDescriptor) allocSize() uint64 {
	return max(desc.Size, minBufferSize)
}

func (p *BufferPool) create(desc BufferDescriptor) (hal.Buffer, error) {
	size := desc.allocSize()
	slogger().Debug("gpu: create buffer", "label", desc.Label, "size", size)
	return p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: desc.Usage,
	})
}

// GetOrCreate returns the buffer for desc, allocating it on first use.
func (p *BufferPool) GetOrCreate(desc BufferDescriptor) (BufferHandle, error) {
	h, err := p.inner.GetOrCreate(desc, p.create)
	return BufferHandle{h}, err
}

// TryGetOrCreate is GetOrCreate that fails with ErrResourceUnavailable
// instead of waiting for the pool lock.
func (p *BufferPool) TryGetOrCreate(desc BufferDescriptor) (BufferHandle, error) {
	h, err := p.inner.TryGetOrCreate(desc, p.create)
	return BufferHandle{h}, err
}

// Descriptor returns the descriptor h was created from.
func (p *BufferPool) Descriptor(h BufferHandle) BufferDescriptor { return p.inner.Descriptor(h.h) }

// Size returns the allocated size of the buffer h in bytes.
func (p *BufferPool) Size(h BufferHandle) uint64 { return p.Descriptor(h).allocSize() }

// Len returns the number of pooled buffers.
func (p *BufferPool) Len() int { return p.inner.Len() }

// Resources returns a read-lock accessor over the pool.
func (p *BufferPool) Resources() *Accessor[BufferHandle, hal.Buffer] {
	return newAccessor[BufferDescriptor, BufferHandle](p.inner.Resources())
}

func (p *BufferPool) destroy() {
	p.inner.Close(func(b hal.Buffer) { p.device.DestroyBuffer(b) })
}
