package ops

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ratchet/gpu"
	"github.com/gogpu/ratchet/wgsl"
)

const gemvOp = "gemv"

// GEMV is a batched matrix-vector product: out = A x X (+ bias).
//
// A is [batch?, M, K], X is [batch?, K, 1] or [batch?, K], bias is [M] and
// out is [batch?, M, 1]. Batch dimensions broadcast independently.
type GEMV struct {
	lhs  TensorDesc
	rhs  TensorDesc
	bias *TensorDesc

	transLHS bool
	transRHS bool
	transOut bool

	element    wgsl.KernelElement
	hasElement bool
}

// GEMVOption configures a GEMV.
type GEMVOption func(*GEMV)

// WithBias adds a bias vector of shape [M].
func WithBias(bias TensorDesc) GEMVOption {
	return func(g *GEMV) { g.bias = &bias }
}

// WithTranspose sets the transposition flags of A, X and the output.
func WithTranspose(lhs, rhs, out bool) GEMVOption {
	return func(g *GEMV) {
		g.transLHS, g.transRHS, g.transOut = lhs, rhs, out
	}
}

// WithKernelElement forces the kernel element width instead of choosing
// the widest one dividing the inner dimension.
func WithKernelElement(e wgsl.KernelElement) GEMVOption {
	return func(g *GEMV) { g.element, g.hasElement = e, true }
}

// NewGEMV validates operand shapes and returns the operation.
func NewGEMV(lhs, rhs TensorDesc, opts ...GEMVOption) (*GEMV, error) {
	g := &GEMV{lhs: lhs, rhs: rhs}
	for _, opt := range opts {
		opt(g)
	}

	if g.transLHS || g.transOut {
		return nil, opError(gemvOp, ErrNotYetSupported, "transposed lhs or output")
	}
	if lhs.Rank() < 2 || lhs.Rank() > 3 {
		return nil, opError(gemvOp, ErrInvalidShape, "lhs %s must have rank 2 or 3", lhs)
	}
	if rhs.Rank() < 1 || rhs.Rank() > 3 {
		return nil, opError(gemvOp, ErrInvalidShape, "rhs %s must have rank 1 to 3", rhs)
	}
	if len(lhs.Strides) != lhs.Rank() || len(rhs.Strides) != rhs.Rank() {
		return nil, opError(gemvOp, ErrInvalidShape, "strides do not match shapes")
	}
	if k := g.rhsInner(); k != g.K() {
		return nil, opError(gemvOp, ErrInvalidShape, "inner dimensions %d and %d differ", g.K(), k)
	}
	if g.bias != nil && (g.bias.Numel() != g.M() || g.bias.Rank() != 1) {
		return nil, opError(gemvOp, ErrInvalidShape, "bias %s does not match %d rows", g.bias, g.M())
	}
	if g.bias != nil && g.bias.DType != g.rhs.DType {
		return nil, opError(gemvOp, ErrUnsupportedDType, "bias %s does not match output dtype %s",
			g.bias, g.rhs.DType)
	}
	if g.lhs.DType.IsQuantized() && g.K()%g.lhs.DType.BlockSize() != 0 {
		return nil, opError(gemvOp, ErrInvalidShape, "inner dimension %d is not a multiple of the %s block size %d",
			g.K(), g.lhs.DType, g.lhs.DType.BlockSize())
	}
	return g, nil
}

// rhsInner returns the reduction length carried by X.
func (g *GEMV) rhsInner() int {
	if g.rhs.Rank() == 1 || g.transRHS {
		return g.rhs.dim(0)
	}
	return g.rhs.dim(1)
}

// M returns the number of output rows.
func (g *GEMV) M() int { return g.lhs.dim(1) }

// K returns the reduction length.
func (g *GEMV) K() int { return g.lhs.dim(0) }

// Batch returns the number of output batches.
func (g *GEMV) Batch() int { return max(g.lhs.dim(2), g.rhs.dim(2)) }

// HasBias reports whether a bias is added.
func (g *GEMV) HasBias() bool { return g.bias != nil }

// OutputDesc returns the contiguous output description.
func (g *GEMV) OutputDesc() TensorDesc {
	if g.Batch() > 1 || g.lhs.Rank() == 3 {
		return NewTensorDesc(g.rhs.DType, g.Batch(), g.M(), 1)
	}
	return NewTensorDesc(g.rhs.DType, g.M(), 1)
}

// StorageBindGroupLayout selects the storage bind group layout from the
// operand types and bias presence:
//
//	float x float          -> Binary
//	float x float + bias   -> Ternary
//	quantized x f32        -> Ternary (weights, scales, X)
//	quantized x f32 + bias -> Nary(4)
//
// Float operands must share one type. Any other combination is
// ErrUnsupportedDType.
func (g *GEMV) StorageBindGroupLayout(inplace bool) (gpu.BindGroupLayoutDescriptor, error) {
	if inplace {
		return gpu.BindGroupLayoutDescriptor{}, opError(gemvOp, ErrNotYetSupported, "in-place gemv")
	}
	a, b := g.lhs.DType, g.rhs.DType
	switch {
	case a.IsFloat() && a == b && !g.HasBias():
		return gpu.Binary(), nil
	case a.IsFloat() && a == b:
		return gpu.Ternary(), nil
	case a.IsQuantized() && b == F32 && !g.HasBias():
		return gpu.Ternary(), nil
	case a.IsQuantized() && b == F32:
		return gpu.Nary(4), nil
	default:
		return gpu.BindGroupLayoutDescriptor{}, opError(gemvOp, ErrUnsupportedDType, "%s x %s", a, b)
	}
}

// KernelElement returns the element width the kernel is rendered with.
func (g *GEMV) KernelElement() wgsl.KernelElement {
	switch {
	case g.hasElement:
		return g.element
	case g.lhs.DType.IsQuantized():
		return wgsl.Vec4
	case g.K()%4 == 0:
		return wgsl.Vec4
	case g.K()%2 == 0:
		return wgsl.Vec2
	default:
		return wgsl.Scalar
	}
}

// KernelKey names the specialization, for example "gemv_f32_vec4_bias".
func (g *GEMV) KernelKey() string {
	key := fmt.Sprintf("%s_%s_%s", gemvOp, g.lhs.DType, g.KernelElement())
	if g.HasBias() {
		key += "_bias"
	}
	return key
}

// Dispatch returns the workgroup counts for wg: one invocation per output
// row along x, the reduction strided across y within a workgroup, one
// batch per z.
func (g *GEMV) Dispatch(wg wgsl.WorkgroupSize) ([3]uint32, error) {
	if err := checkWorkgroupSize(wg); err != nil {
		return [3]uint32{}, err
	}
	m := uint32(g.M())                                                 //nolint:gosec // tensor dims fit u32
	return [3]uint32{(m + wg.X - 1) / wg.X, 1, uint32(g.Batch())}, nil //nolint:gosec // tensor dims fit u32
}

// checkWorkgroupSize rejects workgroup sizes the kernels cannot run with.
// Batches are dispatched one workgroup deep along z, so Z must be 1.
func checkWorkgroupSize(wg wgsl.WorkgroupSize) error {
	limits := gputypes.DefaultLimits()
	switch {
	case wg.X == 0 || wg.Y == 0:
		return opError(gemvOp, ErrInvalidShape, "workgroup size %s has a zero dimension", wg)
	case wg.Z != 1:
		return opError(gemvOp, ErrInvalidShape, "workgroup size %s: z must be 1", wg)
	case wg.X > limits.MaxComputeWorkgroupSizeX || wg.Y > limits.MaxComputeWorkgroupSizeY ||
		wg.Product() > limits.MaxComputeInvocationsPerWorkgroup:
		return opError(gemvOp, ErrInvalidShape, "workgroup size %s exceeds %d invocations",
			wg, limits.MaxComputeInvocationsPerWorkgroup)
	}
	return nil
}

// Meta is the metadata uniform of a GEMV kernel. Shapes and strides are
// [batch, rows, cols] in elements.
type Meta struct {
	AShape, AStrides     [3]int32
	BShape, BStrides     [3]int32
	OutShape, OutStrides [3]int32
	DimAOuter            int32
	DimBOuter            int32
	DimInner             int32
}

var ivec3 = wgsl.I32.Vec(3)

// metaStruct is the WGSL declaration of Meta.
var metaStruct = wgsl.Struct{
	Name: "Meta",
	Fields: []wgsl.Field{
		{Name: "aShape", Type: ivec3},
		{Name: "aStrides", Type: ivec3},
		{Name: "bShape", Type: ivec3},
		{Name: "bStrides", Type: ivec3},
		{Name: "outShape", Type: ivec3},
		{Name: "outStrides", Type: ivec3},
		{Name: "dimAOuter", Type: wgsl.I32.Type()},
		{Name: "dimBOuter", Type: wgsl.I32.Type()},
		{Name: "dimInner", Type: wgsl.I32.Type()},
	},
}

// Bytes encodes m with the uniform buffer layout of the Meta struct.
func (m Meta) Bytes() []byte {
	offsets, size := metaStruct.Layout(true)
	buf := make([]byte, size)
	vecs := [...][3]int32{m.AShape, m.AStrides, m.BShape, m.BStrides, m.OutShape, m.OutStrides}
	for i, v := range vecs {
		for j, x := range v {
			binary.LittleEndian.PutUint32(buf[offsets[i]+4*j:], uint32(x)) //nolint:gosec // bit pattern
		}
	}
	for i, x := range [...]int32{m.DimAOuter, m.DimBOuter, m.DimInner} {
		binary.LittleEndian.PutUint32(buf[offsets[len(vecs)+i]:], uint32(x)) //nolint:gosec // bit pattern
	}
	return buf
}

// String returns a compact form of m, such as
// "a=1x64x128:8192x128x1 b=1x128x1:128x1x1 out=1x64x1:64x1x1 dims=64x1x128".
func (m Meta) String() string {
	return fmt.Sprintf("a=%s:%s b=%s:%s out=%s:%s dims=%dx%dx%d",
		triple(m.AShape), triple(m.AStrides), triple(m.BShape), triple(m.BStrides),
		triple(m.OutShape), triple(m.OutStrides), m.DimAOuter, m.DimBOuter, m.DimInner)
}

func triple(v [3]int32) string { return fmt.Sprintf("%dx%dx%d", v[0], v[1], v[2]) }

// Metadata computes the metadata uniform for writing into dst.
func (g *GEMV) Metadata(dst TensorDesc) Meta {
	bShape, bStrides := g.rhs.shape3(), g.rhs.strides3()
	if g.rhs.Rank() == 1 || g.transRHS {
		// A vector X of length K is viewed as a [1, K, 1] column.
		bShape = [3]int32{bShape[0], bShape[2], 1}
		bStrides = [3]int32{bStrides[0], 1, 1}
	}
	return Meta{
		AShape:     g.lhs.shape3(),
		AStrides:   g.lhs.strides3(),
		BShape:     bShape,
		BStrides:   bStrides,
		OutShape:   dst.shape3(),
		OutStrides: dst.strides3(),
		DimAOuter:  int32(g.M()), //nolint:gosec // tensor dims fit i32
		DimBOuter:  1,
		DimInner:   int32(g.K()), //nolint:gosec // tensor dims fit i32
	}
}
