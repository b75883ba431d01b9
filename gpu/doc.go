// Package gpu owns the compute device context and every pooled GPU object.
//
// # Pools
//
// A [Device] holds five descriptor-keyed pools plus the generated kernel
// source pool:
//
//	BufferPool           BufferDescriptor          -> hal.Buffer
//	BindGroupLayoutPool  BindGroupLayoutDescriptor -> hal.BindGroupLayout
//	BindGroupPool        BindGroupDescriptor       -> hal.BindGroup
//	PipelineLayoutPool   PipelineLayoutDescriptor  -> hal.PipelineLayout
//	ComputePipelinePool  ComputePipelineDescriptor -> hal.ComputePipeline
//	KernelSourcePool     KernelSource              -> WGSL text
//
// GetOrCreate on any pool returns the same handle for equal descriptors and
// constructs the underlying object at most once. Pools never evict; objects
// live until [Device.Destroy].
//
// Dependent pools resolve their dependencies (for example, the pipeline
// layout of a compute pipeline) through short-lived accessors before taking
// their own exclusive lock, so lock acquisition always follows dependency
// order and no two pool locks are held at once.
//
// # Pipeline Assembly
//
// A compute pipeline is built in two phases: the shader source (static
// kernel from package kernels, or generated source from the kernel source
// pool) is compiled into a shader module, then bound to its pipeline layout
// with entry point "main". Compilation is checked (WGSL validated through
// naga before the device sees it) when [Config.Checked] is set, for example
// via the RATCHET_CHECKED environment variable, and unchecked otherwise.
//
// Pipelines are created with workgroup memory zero-initialization turned
// off. Kernels write workgroup memory before reading it.
package gpu
