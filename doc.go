// Package ratchet is a GPU compute engine core for machine-learning tensor
// workloads built on the Pure Go WebGPU stack (gogpu/wgpu).
//
// # Overview
//
// The module owns the expensive GPU objects an inference graph needs and
// generates the compute shaders that run on them:
//
//   - gpu: device context, descriptor-keyed pools for buffers, bind group
//     layouts, bind groups, pipeline layouts and compute pipelines, the
//     generated kernel source pool and pipeline assembly
//   - kernels: the static WGSL kernel catalogue
//   - wgsl: a fragment based WGSL kernel builder
//   - ops: tensor operations that specialize kernels by data type,
//     vector width and quantization layout (GEMV)
//
// # Quick Start
//
//	dev, err := gpu.NewDevice()
//	if err != nil {
//	    return err
//	}
//	defer dev.Destroy()
//
//	op, err := ops.NewGEMV(lhs, rhs, ops.WithBias(bias))
//	if err != nil {
//	    return err
//	}
//	prepared, err := ops.Prepare(dev, op, op.OutputDesc(), wgsl.NewWorkgroupSize(16, 16, 1))
//	if err != nil {
//	    return err
//	}
//	err = prepared.Run(ctx, dev, a, x, b, y)
//
// Identical requests return identical handles; every pooled object is built
// once per unique descriptor and lives until the device is destroyed.
//
// # Logging
//
// ratchet produces no log output by default. Call [SetLogger] to route
// diagnostics to a [log/slog] logger.
package ratchet
