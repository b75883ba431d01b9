package ops

import (
	"fmt"
	"strings"

	"github.com/gogpu/ratchet/wgsl"
)

// DType is the storage type of a tensor.
type DType uint8

// Storage types. The quantized types are GGUF block formats.
const (
	F32 DType = iota
	F16
	Q8_0
	Q4_0
	Q4_K
	Q6_K
)

var dtypeNames = [...]string{
	F32:  "f32",
	F16:  "f16",
	Q8_0: "q8_0",
	Q4_0: "q4_0",
	Q4_K: "q4_k",
	Q6_K: "q6_k",
}

func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return fmt.Sprintf("DType(%d)", d)
}

// ParseDType parses the String form of a dtype, ignoring case.
func ParseDType(s string) (DType, error) {
	for i, name := range dtypeNames {
		if strings.EqualFold(s, name) {
			return DType(i), nil //nolint:gosec // bounded by dtypeNames
		}
	}
	return F32, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
}

// IsFloat reports whether d is an unquantized float type.
func (d DType) IsFloat() bool { return d == F32 || d == F16 }

// IsQuantized reports whether d is a block-quantized type.
func (d DType) IsQuantized() bool { return d >= Q8_0 && d <= Q6_K }

// BlockSize returns the number of elements sharing one scale, or 1 for
// float types.
func (d DType) BlockSize() int {
	switch d {
	case Q8_0, Q4_0:
		return 32
	case Q4_K, Q6_K:
		return 256
	default:
		return 1
	}
}

// Primitive returns the WGSL element primitive of a float dtype.
// Quantized weights are read as packed u32 words.
func (d DType) Primitive() wgsl.Primitive {
	switch d {
	case F32:
		return wgsl.F32
	case F16:
		return wgsl.F16
	default:
		return wgsl.U32
	}
}

// TensorDesc describes a tensor operand: its type, shape and element
// strides, outermost dimension first.
type TensorDesc struct {
	DType   DType
	Shape   []int
	Strides []int
}

// NewTensorDesc returns a contiguous tensor description.
func NewTensorDesc(dt DType, shape ...int) TensorDesc {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return TensorDesc{DType: dt, Shape: shape, Strides: strides}
}

// Rank returns the number of dimensions.
func (t TensorDesc) Rank() int { return len(t.Shape) }

// Numel returns the number of elements.
func (t TensorDesc) Numel() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// dim returns dimension i counted from the innermost (0), or 1 if the
// tensor has fewer dimensions.
func (t TensorDesc) dim(i int) int {
	if i >= len(t.Shape) {
		return 1
	}
	return t.Shape[len(t.Shape)-1-i]
}

// shape3 and strides3 view the tensor as [batch, rows, cols].
func (t TensorDesc) shape3() [3]int32 {
	return [3]int32{int32(t.dim(2)), int32(t.dim(1)), int32(t.dim(0))} //nolint:gosec // tensor dims fit i32
}

func (t TensorDesc) strides3() [3]int32 {
	s := [3]int32{}
	for i := range 3 {
		j := len(t.Strides) - 1 - i
		switch {
		case j >= 0:
			s[2-i] = int32(t.Strides[j]) //nolint:gosec // tensor strides fit i32
		case i == 0:
			s[2-i] = 1
		default:
			s[2-i] = s[3-i] * int32(t.dim(i-1)) //nolint:gosec // tensor dims fit i32
		}
	}
	return s
}

func (t TensorDesc) String() string {
	return fmt.Sprintf("%s%v", t.DType, t.Shape)
}
