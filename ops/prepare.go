package ops

import (
	"context"
	"fmt"

	"github.com/gogpu/ratchet/gpu"
	"github.com/gogpu/ratchet/wgsl"
)

// PreparedPipeline is a GEMV ready to dispatch on one Device.
type PreparedPipeline struct {
	Key           string
	Pipeline      gpu.ComputePipelineHandle
	StorageLayout gpu.BindGroupLayoutHandle
	UniformLayout gpu.BindGroupLayoutHandle
	Source        gpu.KernelSourceHandle
	Workgroups    [3]uint32
	Meta          Meta
}

// Prepare renders op for dst and obtains its pipeline from the device
// pools: storage and uniform layouts, pipeline layout, generated source
// and compute pipeline, in that order. Rendering happens before any pool
// is touched, so an unsupported operation inserts nothing.
func Prepare(dev *gpu.Device, op *GEMV, dst TensorDesc, wg wgsl.WorkgroupSize) (PreparedPipeline, error) {
	storageDesc, err := op.StorageBindGroupLayout(false)
	if err != nil {
		return PreparedPipeline{}, err
	}
	kernel, err := op.Render(false, dst, wg)
	if err != nil {
		return PreparedPipeline{}, err
	}
	workgroups, err := op.Dispatch(wg)
	if err != nil {
		return PreparedPipeline{}, err
	}

	storage, err := dev.BindGroupLayouts().GetOrCreate(storageDesc)
	if err != nil {
		return PreparedPipeline{}, fmt.Errorf("ops: storage layout: %w", err)
	}
	uniform, err := dev.BindGroupLayouts().GetOrCreate(gpu.Uniform())
	if err != nil {
		return PreparedPipeline{}, fmt.Errorf("ops: uniform layout: %w", err)
	}
	layout, err := dev.PipelineLayouts().GetOrCreate(gpu.NewPipelineLayoutDescriptor(storage, uniform))
	if err != nil {
		return PreparedPipeline{}, fmt.Errorf("ops: pipeline layout: %w", err)
	}

	key := op.KernelKey()
	src, err := dev.KernelSources().GetOrCreate(gpu.KernelSource{Key: key, Source: kernel.Source})
	if err != nil {
		return PreparedPipeline{}, fmt.Errorf("ops: store kernel source: %w", err)
	}
	pipeline, err := dev.ComputePipelines().GetOrCreate(gpu.ComputePipelineDescriptor{
		PipelineLayout: layout,
		KernelKey:      key,
		Source:         src,
	})
	if err != nil {
		return PreparedPipeline{}, err
	}

	return PreparedPipeline{
		Key:           key,
		Pipeline:      pipeline,
		StorageLayout: storage,
		UniformLayout: uniform,
		Source:        src,
		Workgroups:    workgroups,
		Meta:          op.Metadata(dst),
	}, nil
}

// Run binds buffers (in storage layout order: inputs, then the output)
// and the metadata uniform, and dispatches the pipeline. The uniform is
// pooled per metadata, so pipelines sharing a kernel key but not a shape
// never share one.
func (p PreparedPipeline) Run(ctx context.Context, dev *gpu.Device, buffers ...gpu.BufferHandle) error {
	want := dev.BindGroupLayouts().Descriptor(p.StorageLayout).Len
	if len(buffers) != want {
		return fmt.Errorf("ops: %s takes %d buffers, got %d", p.Key, want, len(buffers))
	}

	meta, err := dev.CreateBufferInit(gpu.BufferDescriptor{
		Label: p.Key + "_meta " + p.Meta.String(),
		Usage: gpu.UniformUsage,
	}, p.Meta.Bytes())
	if err != nil {
		return fmt.Errorf("ops: metadata buffer: %w", err)
	}

	storage, err := dev.BindGroups().GetOrCreate(gpu.NewBindGroupDescriptor(p.StorageLayout, buffers...))
	if err != nil {
		return fmt.Errorf("ops: storage bind group: %w", err)
	}
	uniform, err := dev.BindGroups().GetOrCreate(gpu.NewBindGroupDescriptor(p.UniformLayout, meta))
	if err != nil {
		return fmt.Errorf("ops: uniform bind group: %w", err)
	}

	return dev.Dispatch(ctx, gpu.DispatchDescriptor{
		Label:      p.Key,
		Pipeline:   p.Pipeline,
		BindGroups: []gpu.BindGroupHandle{storage, uniform},
		Workgroups: p.Workgroups,
	})
}
