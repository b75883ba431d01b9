package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ratchet/internal/pool"
)

// BindGroupEntry binds a range of a pooled buffer. A zero Size binds the
// buffer from Offset to its end.
type BindGroupEntry struct {
	Buffer BufferHandle
	Offset uint64
	Size   uint64
}

// BindGroupDescriptor describes a bind group over the first Len entries.
// Entry i is bound at binding i of Layout.
type BindGroupDescriptor struct {
	Layout  BindGroupLayoutHandle
	Entries [MaxBindings]BindGroupEntry
	Len     int
}

// NewBindGroupDescriptor returns a descriptor binding each buffer in full.
func NewBindGroupDescriptor(layout BindGroupLayoutHandle, buffers ...BufferHandle) BindGroupDescriptor {
	if len(buffers) > MaxBindings {
		panic(fmt.Sprintf("gpu: bind group with %d buffers exceeds %d bindings", len(buffers), MaxBindings))
	}
	d := BindGroupDescriptor{Layout: layout, Len: len(buffers)}
	for i, b := range buffers {
		d.Entries[i] = BindGroupEntry{Buffer: b}
	}
	return d
}

// BindGroupPool caches bind groups by descriptor. It depends on the layout
// and buffer pools, which are resolved before the bind group pool is
// locked.
type BindGroupPool struct {
	device  hal.Device
	layouts *BindGroupLayoutPool
	buffers *BufferPool
	inner   *pool.Pool[BindGroupDescriptor, hal.BindGroup]
}

func newBindGroupPool(device hal.Device, layouts *BindGroupLayoutPool, buffers *BufferPool) *BindGroupPool {
	return &BindGroupPool{
		device:  device,
		layouts: layouts,
		buffers: buffers,
		inner:   pool.New[BindGroupDescriptor, hal.BindGroup](),
	}
}

// GetOrCreate returns the bind group for desc, creating it on first use.
func (p *BindGroupPool) GetOrCreate(desc BindGroupDescriptor) (BindGroupHandle, error) {
	if h, ok := p.inner.Lookup(desc); ok {
		return BindGroupHandle{h}, nil
	}
	if desc.Len <= 0 || desc.Len > MaxBindings {
		return BindGroupHandle{}, fmt.Errorf("gpu: bind group with %d entries", desc.Len)
	}
	layoutDesc := p.layouts.Descriptor(desc.Layout)
	if layoutDesc.Len != desc.Len {
		return BindGroupHandle{}, fmt.Errorf("gpu: bind group has %d entries, layout %s has %d",
			desc.Len, layoutDesc, layoutDesc.Len)
	}

	sizes, err := p.bindingSizes(desc)
	if err != nil {
		return BindGroupHandle{}, err
	}
	layout := p.layout(desc.Layout)
	entries := p.entries(desc, sizes)

	h, err := p.inner.GetOrCreate(desc, func(BindGroupDescriptor) (hal.BindGroup, error) {
		slogger().Debug("gpu: create bind group", "layout", layoutDesc.String(), "entries", desc.Len)
		return p.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   "bind_group",
			Layout:  layout,
			Entries: entries,
		})
	})
	return BindGroupHandle{h}, err
}

// bindingSizes returns the bound size of each entry, checking that every
// range lies inside its buffer.
func (p *BindGroupPool) bindingSizes(desc BindGroupDescriptor) ([]uint64, error) {
	sizes := make([]uint64, desc.Len)
	for i, e := range desc.Entries[:desc.Len] {
		bufSize := p.buffers.Size(e.Buffer)
		if e.Offset > bufSize {
			return nil, fmt.Errorf("gpu: bind group entry %d: offset %d past end of %s (%d bytes)",
				i, e.Offset, e.Buffer, bufSize)
		}
		size := e.Size
		if size == 0 {
			size = bufSize - e.Offset
		}
		if size == 0 || size > bufSize-e.Offset {
			return nil, fmt.Errorf("gpu: bind group entry %d: range [%d, +%d) outside %s (%d bytes)",
				i, e.Offset, size, e.Buffer, bufSize)
		}
		sizes[i] = size
	}
	return sizes, nil
}

func (p *BindGroupPool) layout(h BindGroupLayoutHandle) hal.BindGroupLayout {
	layouts := p.layouts.Resources()
	defer layouts.Release()
	return layouts.Get(h)
}

func (p *BindGroupPool) entries(desc BindGroupDescriptor, sizes []uint64) []gputypes.BindGroupEntry {
	buffers := p.buffers.Resources()
	defer buffers.Release()

	entries := make([]gputypes.BindGroupEntry, desc.Len)
	for i, e := range desc.Entries[:desc.Len] {
		entries[i] = gputypes.BindGroupEntry{
			Binding: uint32(i), //nolint:gosec // i < MaxBindings
			Resource: gputypes.BufferBinding{
				Buffer: buffers.Get(e.Buffer).NativeHandle(),
				Offset: e.Offset,
				Size:   sizes[i],
			},
		}
	}
	return entries
}

// Descriptor returns the descriptor h was created from.
func (p *BindGroupPool) Descriptor(h BindGroupHandle) BindGroupDescriptor { return p.inner.Descriptor(h.h) }

// Len returns the number of pooled bind groups.
func (p *BindGroupPool) Len() int { return p.inner.Len() }

// Resources returns a read-lock accessor over the pool.
func (p *BindGroupPool) Resources() *Accessor[BindGroupHandle, hal.BindGroup] {
	return newAccessor[BindGroupDescriptor, BindGroupHandle](p.inner.Resources())
}

func (p *BindGroupPool) destroy() {
	p.inner.Close(func(g hal.BindGroup) { p.device.DestroyBindGroup(g) })
}
