package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ratchet/internal/pool"
	"github.com/gogpu/ratchet/kernels"
)

// ComputePipelineDescriptor identifies a compute pipeline.
//
// When Source is set the shader text comes from the kernel source pool and
// KernelKey only labels the pipeline. Otherwise KernelKey names a kernel in
// the static catalogue of package kernels.
type ComputePipelineDescriptor struct {
	PipelineLayout PipelineLayoutHandle
	KernelKey      string
	Source         KernelSourceHandle
}

// ComputePipelinePool assembles and caches compute pipelines.
//
// A miss walks the assembly steps in order: resolve the shader source,
// compile it into a shader module, create the pipeline against the
// resolved layout. A failure at any step inserts nothing, so the same
// descriptor fails the same way on the next attempt.
type ComputePipelinePool struct {
	device  hal.Device
	checked bool
	layouts *PipelineLayoutPool
	sources *KernelSourcePool
	inner   *pool.Pool[ComputePipelineDescriptor, hal.ComputePipeline]
}

func newComputePipelinePool(device hal.Device, checked bool, layouts *PipelineLayoutPool, sources *KernelSourcePool) *ComputePipelinePool {
	return &ComputePipelinePool{
		device:  device,
		checked: checked,
		layouts: layouts,
		sources: sources,
		inner:   pool.New[ComputePipelineDescriptor, hal.ComputePipeline](),
	}
}

// source returns the shader text for desc.
func (p *ComputePipelinePool) source(desc ComputePipelineDescriptor) (string, error) {
	if !desc.Source.IsZero() {
		srcs := p.sources.Resources()
		defer srcs.Release()
		return srcs.Get(desc.Source), nil
	}
	src, ok := kernels.Lookup(desc.KernelKey)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrKernelNotFound, desc.KernelKey)
	}
	return src, nil
}

// GetOrCreate returns the pipeline for desc, assembling it on first use.
func (p *ComputePipelinePool) GetOrCreate(desc ComputePipelineDescriptor) (ComputePipelineHandle, error) {
	if h, ok := p.inner.Lookup(desc); ok {
		return ComputePipelineHandle{h}, nil
	}

	src, err := p.source(desc)
	if err != nil {
		return ComputePipelineHandle{}, err
	}

	layout := p.layout(desc.PipelineLayout)

	h, err := p.inner.GetOrCreate(desc, func(desc ComputePipelineDescriptor) (hal.ComputePipeline, error) {
		return p.assemble(desc.KernelKey, src, layout)
	})
	return ComputePipelineHandle{h}, err
}

func (p *ComputePipelinePool) layout(h PipelineLayoutHandle) hal.PipelineLayout {
	layouts := p.layouts.Resources()
	defer layouts.Release()
	return layouts.Get(h)
}

// assemble compiles src and creates the pipeline. The shader module is
// destroyed once the pipeline holds it.
func (p *ComputePipelinePool) assemble(key, src string, layout hal.PipelineLayout) (hal.ComputePipeline, error) {
	module, err := createShaderModule(p.device, key, src, p.checked)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile kernel %q: %w", key, err)
	}
	defer p.device.DestroyShaderModule(module)

	pipeline, err := p.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  key,
		Layout: layout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: EntryPoint,

			// Kernels write workgroup memory before reading it.
			ZeroInitializeWorkgroupMemory: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create pipeline %q: %w", key, err)
	}
	slogger().Debug("gpu: created compute pipeline", "kernel", key, "checked", p.checked)
	return pipeline, nil
}

// Descriptor returns the descriptor h was created from.
func (p *ComputePipelinePool) Descriptor(h ComputePipelineHandle) ComputePipelineDescriptor {
	return p.inner.Descriptor(h.h)
}

// Len returns the number of pooled pipelines.
func (p *ComputePipelinePool) Len() int { return p.inner.Len() }

// Resources returns a read-lock accessor over the pool.
func (p *ComputePipelinePool) Resources() *Accessor[ComputePipelineHandle, hal.ComputePipeline] {
	return newAccessor[ComputePipelineDescriptor, ComputePipelineHandle](p.inner.Resources())
}

func (p *ComputePipelinePool) destroy() {
	p.inner.Close(func(c hal.ComputePipeline) { p.device.DestroyComputePipeline(c) })
}
