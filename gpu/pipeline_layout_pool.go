package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ratchet/internal/pool"
)

// MaxBindGroups is the largest number of bind groups in a pipeline layout.
const MaxBindGroups = 4

// PipelineLayoutDescriptor lists the bind group layouts of a pipeline,
// group i at position i.
type PipelineLayoutDescriptor struct {
	Layouts [MaxBindGroups]BindGroupLayoutHandle
	Len     int
}

// NewPipelineLayoutDescriptor returns a descriptor for the given groups.
func NewPipelineLayoutDescriptor(layouts ...BindGroupLayoutHandle) PipelineLayoutDescriptor {
	if len(layouts) > MaxBindGroups {
		panic(fmt.Sprintf("gpu: pipeline layout with %d groups exceeds %d", len(layouts), MaxBindGroups))
	}
	d := PipelineLayoutDescriptor{Len: len(layouts)}
	copy(d.Layouts[:], layouts)
	return d
}

// PipelineLayoutPool caches pipeline layouts by descriptor.
type PipelineLayoutPool struct {
	device  hal.Device
	layouts *BindGroupLayoutPool
	inner   *pool.Pool[PipelineLayoutDescriptor, hal.PipelineLayout]
}

func newPipelineLayoutPool(device hal.Device, layouts *BindGroupLayoutPool) *PipelineLayoutPool {
	return &PipelineLayoutPool{
		device:  device,
		layouts: layouts,
		inner:   pool.New[PipelineLayoutDescriptor, hal.PipelineLayout](),
	}
}

// GetOrCreate returns the pipeline layout for desc, creating it on first
// use. Every bind group layout handle must come from the same Device.
func (p *PipelineLayoutPool) GetOrCreate(desc PipelineLayoutDescriptor) (PipelineLayoutHandle, error) {
	if h, ok := p.inner.Lookup(desc); ok {
		return PipelineLayoutHandle{h}, nil
	}
	if desc.Len <= 0 || desc.Len > MaxBindGroups {
		return PipelineLayoutHandle{}, fmt.Errorf("gpu: pipeline layout with %d groups", desc.Len)
	}

	groups := p.groupLayouts(desc)

	h, err := p.inner.GetOrCreate(desc, func(PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
		slogger().Debug("gpu: create pipeline layout", "groups", desc.Len)
		return p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            "pipeline_layout",
			BindGroupLayouts: groups,
		})
	})
	return PipelineLayoutHandle{h}, err
}

func (p *PipelineLayoutPool) groupLayouts(desc PipelineLayoutDescriptor) []hal.BindGroupLayout {
	layouts := p.layouts.Resources()
	defer layouts.Release()

	groups := make([]hal.BindGroupLayout, desc.Len)
	for i, l := range desc.Layouts[:desc.Len] {
		groups[i] = layouts.Get(l)
	}
	return groups
}

// Descriptor returns the descriptor h was created from.
func (p *PipelineLayoutPool) Descriptor(h PipelineLayoutHandle) PipelineLayoutDescriptor {
	return p.inner.Descriptor(h.h)
}

// Len returns the number of pooled pipeline layouts.
func (p *PipelineLayoutPool) Len() int { return p.inner.Len() }

// Resources returns a read-lock accessor over the pool.
func (p *PipelineLayoutPool) Resources() *Accessor[PipelineLayoutHandle, hal.PipelineLayout] {
	return newAccessor[PipelineLayoutDescriptor, PipelineLayoutHandle](p.inner.Resources())
}

func (p *PipelineLayoutPool) destroy() {
	p.inner.Close(func(l hal.PipelineLayout) { p.device.DestroyPipelineLayout(l) })
}
