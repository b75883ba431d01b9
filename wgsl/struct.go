package wgsl

import "strings"

// Field is a struct member.
type Field struct {
	Name string
	Type Type
}

// Struct is a WGSL struct declaration.
type Struct struct {
	Name   string
	Fields []Field
}

// Decl renders the struct declaration.
func (s Struct) Decl() string {
	var sb strings.Builder
	sb.WriteString("struct ")
	sb.WriteString(s.Name)
	sb.WriteString(" {\n")
	for _, f := range s.Fields {
		sb.WriteString(indent)
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		sb.WriteString(f.Type.String())
		sb.WriteString(",\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Layout returns the byte offset of every field and the struct size under
// WGSL host-shareable layout rules: each member at its alignment, the
// size rounded up to the largest alignment. For the uniform address space
// the size is further rounded to 16 bytes.
func (s Struct) Layout(uniform bool) (offsets []int, size int) {
	offsets = make([]int, len(s.Fields))
	align := 1
	for i, f := range s.Fields {
		a := f.Type.Align()
		align = max(align, a)
		size = roundUp(size, a)
		offsets[i] = size
		size += f.Type.Size()
	}
	if uniform {
		align = max(align, 16)
	}
	return offsets, roundUp(size, align)
}

func roundUp(n, align int) int {
	return (n + align - 1) / align * align
}
