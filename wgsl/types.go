package wgsl

import "fmt"

// Primitive is a WGSL scalar type.
type Primitive uint8

// Scalar types.
const (
	F32 Primitive = iota
	F16
	I32
	U32
)

func (p Primitive) String() string {
	switch p {
	case F32:
		return "f32"
	case F16:
		return "f16"
	case I32:
		return "i32"
	case U32:
		return "u32"
	default:
		return fmt.Sprintf("Primitive(%d)", p)
	}
}

// Size returns the size in bytes of one scalar.
func (p Primitive) Size() int {
	if p == F16 {
		return 2
	}
	return 4
}

// Type returns the scalar type of p.
func (p Primitive) Type() Type { return Type{Prim: p, Lanes: 1} }

// Vec returns the vector type of p with n lanes (2, 3 or 4).
func (p Primitive) Vec(n int) Type { return Type{Prim: p, Lanes: n} }

// Type is a WGSL scalar or vector type.
type Type struct {
	Prim  Primitive
	Lanes int
}

func (t Type) String() string {
	if t.Lanes <= 1 {
		return t.Prim.String()
	}
	return fmt.Sprintf("vec%d<%s>", t.Lanes, t.Prim)
}

// IsVector reports whether t has more than one lane.
func (t Type) IsVector() bool { return t.Lanes > 1 }

// Size returns the size of t in bytes.
func (t Type) Size() int { return max(t.Lanes, 1) * t.Prim.Size() }

// Align returns the alignment of t in the uniform and storage address
// spaces. Three-lane vectors align like four-lane ones.
func (t Type) Align() int {
	switch t.Lanes {
	case 2:
		return 2 * t.Prim.Size()
	case 3, 4:
		return 4 * t.Prim.Size()
	default:
		return t.Prim.Size()
	}
}

// KernelElement is the number of primitives a kernel processes per memory
// access.
type KernelElement uint8

// Kernel element widths.
const (
	Scalar KernelElement = iota
	Vec2
	Vec4
)

// Lanes returns the number of primitives per element.
func (e KernelElement) Lanes() int {
	switch e {
	case Vec2:
		return 2
	case Vec4:
		return 4
	default:
		return 1
	}
}

func (e KernelElement) String() string {
	switch e {
	case Vec2:
		return "vec2"
	case Vec4:
		return "vec4"
	default:
		return "scalar"
	}
}

// Type returns the element type over primitive p: p itself for Scalar,
// vecN<p> otherwise.
func (e KernelElement) Type(p Primitive) Type { return Type{Prim: p, Lanes: e.Lanes()} }

// Zero returns the WGSL zero value of the element type over p.
func (e KernelElement) Zero(p Primitive) string {
	if e == Scalar {
		return p.String() + "(0.0)"
	}
	return e.Type(p).String() + "(0.0)"
}

// Reduce returns an expression summing the lanes of x, an element over p.
func (e KernelElement) Reduce(p Primitive, x string) string {
	switch e {
	case Vec2:
		return fmt.Sprintf("(%s.x + %s.y)", x, x)
	case Vec4:
		return fmt.Sprintf("dot(%s, %s(1.0))", x, e.Type(p))
	default:
		return x
	}
}

// Elements returns every kernel element width, narrowest first.
func Elements() []KernelElement { return []KernelElement{Scalar, Vec2, Vec4} }

// ParseKernelElement parses the String form of a kernel element.
func ParseKernelElement(s string) (KernelElement, error) {
	for _, e := range Elements() {
		if e.String() == s {
			return e, nil
		}
	}
	return Scalar, fmt.Errorf("wgsl: unknown kernel element %q", s)
}
