package ops

import (
	"github.com/gogpu/ratchet"
	"github.com/gogpu/ratchet/wgsl"
)

// unpackQ8 rescales four packed signed bytes of a Q8_0 block to floats.
const unpackQ8 = `fn unpack4x8snorm_gguf(x: u32) -> vec4<f32> {
    return unpack4x8snorm(x) * 127.0;
}`

// Render returns WGSL for writing A x X (+ bias) into dst with the given
// workgroup size. The code generation branch is chosen statically from the
// lhs dtype and the kernel element width; equal inputs render identical
// text.
func (g *GEMV) Render(inplace bool, dst TensorDesc, wg wgsl.WorkgroupSize) (wgsl.Kernel, error) {
	if err := checkWorkgroupSize(wg); err != nil {
		return wgsl.Kernel{}, err
	}
	if _, err := g.StorageBindGroupLayout(inplace); err != nil {
		return wgsl.Kernel{}, err
	}
	elem := g.KernelElement()
	if g.K()%elem.Lanes() != 0 {
		return wgsl.Kernel{}, opError(gemvOp, ErrInvalidShape,
			"inner dimension %d is not a multiple of %s", g.K(), elem)
	}

	var (
		k   wgsl.Kernel
		err error
	)
	switch dt := g.lhs.DType; {
	case dt.IsFloat():
		k = g.renderFloat(dt.Primitive(), elem, wg)
	case dt == Q8_0 && elem == wgsl.Vec4:
		k = g.renderQ8(wg)
	case dt == Q8_0:
		err = opError(gemvOp, ErrNotYetSupported, "%s with %s elements", dt, elem)
	default:
		err = opError(gemvOp, ErrNotYetSupported, "%s kernels", dt)
	}
	if err != nil {
		return wgsl.Kernel{}, err
	}
	ratchet.Logger().Debug("ops: rendered kernel", "key", g.KernelKey(), "workgroup", wg.String(), "bytes", len(k.Source))
	return k, nil
}

// renderFloat renders the float x float kernel.
func (g *GEMV) renderFloat(p wgsl.Primitive, elem wgsl.KernelElement, wg wgsl.WorkgroupSize) wgsl.Kernel {
	b := wgsl.NewBuilder()
	vec := elem.Type(p)

	b.Binding(0, 0, "A", wgsl.Read, vec)
	b.Binding(0, 1, "X", wgsl.Read, vec)
	next := 2
	if g.HasBias() {
		b.Binding(0, next, "bias", wgsl.Read, p.Type())
		next++
	}
	b.Binding(0, next, "Y", wgsl.ReadWrite, p.Type())
	g.writeMetadata(b)

	g.writePrologue(b, p, elem, wg)
	b.Linef("let aIndex = aOffset + row * metadata.aStrides.y / %d;", elem.Lanes())
	b.Linef("for (var k = i32(global_invocation_id.y); k < metadata.dimInner / %d; k += %d) {", elem.Lanes(), wg.Y)
	b.Line("sum = fma(A[aIndex + k], X[bOffset + k], sum);")
	b.Line("}")
	g.writeEpilogue(b, p, elem, wg)

	return b.Build(wg, wgsl.GlobalInvocationID, wgsl.LocalInvocationID, wgsl.WorkgroupID)
}

// renderQ8 renders the Q8_0 x f32 kernel. A holds four signed bytes per
// word and scale one f32 per 32-element block.
func (g *GEMV) renderQ8(wg wgsl.WorkgroupSize) wgsl.Kernel {
	const elem = wgsl.Vec4
	b := wgsl.NewBuilder()

	b.Binding(0, 0, "A", wgsl.Read, wgsl.U32.Type())
	b.Binding(0, 1, "scale", wgsl.Read, wgsl.F32.Type())
	b.Binding(0, 2, "X", wgsl.Read, elem.Type(wgsl.F32))
	next := 3
	if g.HasBias() {
		b.Binding(0, next, "bias", wgsl.Read, wgsl.F32.Type())
		next++
	}
	b.Binding(0, next, "Y", wgsl.ReadWrite, wgsl.F32.Type())
	g.writeMetadata(b)
	b.Function(unpackQ8)

	g.writePrologue(b, wgsl.F32, elem, wg)
	b.Line("let aIndex = aOffset + row * metadata.aStrides.y / 4;")
	b.Linef("let sIndex = (metadata.aStrides.x * batchA + row * metadata.aStrides.y) / %d;", Q8_0.BlockSize())
	b.Linef("for (var k = i32(global_invocation_id.y); k < metadata.dimInner / 4; k += %d) {", wg.Y)
	b.Linef("sum = fma(unpack4x8snorm_gguf(A[aIndex + k]) * scale[sIndex + (k / %d)], X[bOffset + k], sum);",
		Q8_0.BlockSize()/elem.Lanes())
	b.Line("}")
	g.writeEpilogue(b, wgsl.F32, elem, wg)

	return b.Build(wg, wgsl.GlobalInvocationID, wgsl.LocalInvocationID, wgsl.WorkgroupID)
}

func (g *GEMV) writeMetadata(b *wgsl.Builder) {
	b.Struct(metaStruct)
	b.Uniform(1, 0, "metadata", metaStruct.Name)
}

// writePrologue emits row and batch indexing. Each operand takes the batch
// index modulo its own batch extent, so batches broadcast independently.
//
// With one invocation per row along y the bounds guard returns right away.
// Otherwise the invocations of a row reduce through workgroup memory and
// the guard follows the barrier in writeEpilogue.
func (g *GEMV) writePrologue(b *wgsl.Builder, p wgsl.Primitive, elem wgsl.KernelElement, wg wgsl.WorkgroupSize) {
	b.Line("let row = i32(global_invocation_id.x);")
	if wg.Y == 1 {
		writeBoundsGuard(b)
	}
	b.Blank()
	b.Line("let batch = i32(global_invocation_id.z);")
	b.Line("let batchA = batch % metadata.aShape.x;")
	b.Line("let batchB = batch % metadata.bShape.x;")
	b.Blank()
	b.Linef("let aOffset = metadata.aStrides.x * batchA / %d;", elem.Lanes())
	b.Linef("let bOffset = metadata.bStrides.x * batchB / %d;", elem.Lanes())
	b.Line("let outOffset = metadata.outStrides.x * batch;")
	b.Blank()
	b.Linef("var sum = %s;", elem.Zero(p))
}

func writeBoundsGuard(b *wgsl.Builder) {
	b.Line("if (row >= metadata.outShape.y) {")
	b.Line("return;")
	b.Line("}")
}

// writeEpilogue reduces the partial sums of a row, adds the bias and
// stores the result. Workgroup memory is written before it is read.
func (g *GEMV) writeEpilogue(b *wgsl.Builder, p wgsl.Primitive, elem wgsl.KernelElement, wg wgsl.WorkgroupSize) {
	bias := ""
	if g.HasBias() {
		bias = " + bias[row]"
	}
	b.Blank()
	if wg.Y == 1 {
		b.Linef("Y[outOffset + row] = %s%s;", elem.Reduce(p, "sum"), bias)
		return
	}

	b.Workgroup("partials", elem.Type(p), wg.X*wg.Y)
	b.Linef("let lane = local_invocation_id.x * %du;", wg.Y)
	b.Line("partials[lane + local_invocation_id.y] = sum;")
	b.Line("workgroupBarrier();")
	b.Blank()
	writeBoundsGuard(b)
	b.Line("if (local_invocation_id.y == 0u) {")
	b.Linef("var acc = %s;", elem.Zero(p))
	b.Linef("for (var i = 0u; i < %du; i++) {", wg.Y)
	b.Line("acc += partials[lane + i];")
	b.Line("}")
	b.Linef("Y[outOffset + row] = %s%s;", elem.Reduce(p, "acc"), bias)
	b.Line("}")
}
