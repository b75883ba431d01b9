package wgsl

import (
	"fmt"
	"slices"
	"strings"
)

const indent = "    "

// Access is the access mode of a storage binding.
type Access uint8

// Storage access modes.
const (
	Read Access = iota
	ReadWrite
)

func (a Access) String() string {
	if a == ReadWrite {
		return "read_write"
	}
	return "read"
}

// FragmentKind orders fragments in the rendered source.
type FragmentKind uint8

// Fragment kinds in render order.
const (
	FragmentEnable FragmentKind = iota
	FragmentStruct
	FragmentBinding
	FragmentWorkgroup
	FragmentFunction
	FragmentStatement
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentEnable:
		return "enable"
	case FragmentStruct:
		return "struct"
	case FragmentBinding:
		return "binding"
	case FragmentWorkgroup:
		return "workgroup"
	case FragmentFunction:
		return "function"
	default:
		return "statement"
	}
}

// Fragment is one rendered piece of a shader.
type Fragment struct {
	Kind FragmentKind
	Text string
}

// Builder accumulates fragments of a compute shader.
// The zero value is ready to use. A Builder is not safe for concurrent use.
type Builder struct {
	fragments []Fragment
	enables   []string
	depth     int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) add(kind FragmentKind, text string) {
	b.fragments = append(b.fragments, Fragment{Kind: kind, Text: text})
}

// Enable adds an enable directive once, for example "f16".
func (b *Builder) Enable(extension string) {
	if slices.Contains(b.enables, extension) {
		return
	}
	b.enables = append(b.enables, extension)
	b.add(FragmentEnable, "enable "+extension+";\n")
}

// Struct declares s.
func (b *Builder) Struct(s Struct) { b.add(FragmentStruct, s.Decl()) }

// Binding declares a storage buffer array of elem at group, binding.
// F16 elements enable the f16 extension.
func (b *Builder) Binding(group, binding int, name string, access Access, elem Type) {
	if elem.Prim == F16 {
		b.Enable("f16")
	}
	b.add(FragmentBinding, fmt.Sprintf("@group(%d) @binding(%d) var<storage, %s> %s: array<%s>;\n",
		group, binding, access, name, elem))
}

// Uniform declares a uniform buffer of struct type typeName.
func (b *Builder) Uniform(group, binding int, name, typeName string) {
	b.add(FragmentBinding, fmt.Sprintf("@group(%d) @binding(%d) var<uniform> %s: %s;\n",
		group, binding, name, typeName))
}

// Workgroup declares a workgroup array of n elements of elem.
func (b *Builder) Workgroup(name string, elem Type, n uint32) {
	b.add(FragmentWorkgroup, fmt.Sprintf("var<workgroup> %s: array<%s, %d>;\n", name, elem, n))
}

// Function adds a helper function, rendered before main.
func (b *Builder) Function(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	b.add(FragmentFunction, text)
}

// Line adds one statement to the main body. Lines ending in "{" open a
// block and lines starting with "}" close one; indentation follows.
func (b *Builder) Line(stmt string) {
	stmt = strings.TrimSpace(stmt)
	if strings.HasPrefix(stmt, "}") && b.depth > 0 {
		b.depth--
	}
	b.add(FragmentStatement, strings.Repeat(indent, b.depth+1)+stmt+"\n")
	if strings.HasSuffix(stmt, "{") {
		b.depth++
	}
}

// Linef is Line with fmt formatting.
func (b *Builder) Linef(format string, args ...any) { b.Line(fmt.Sprintf(format, args...)) }

// Blank adds an empty line to the main body.
func (b *Builder) Blank() { b.add(FragmentStatement, "\n") }

// Fragments returns the fragments added so far, in insertion order.
func (b *Builder) Fragments() []Fragment { return slices.Clone(b.fragments) }

// Build renders the shader with entry point main at the given workgroup
// size, taking the listed built-ins as parameters. Sections appear in
// FragmentKind order and fragments keep insertion order within a section.
func (b *Builder) Build(wg WorkgroupSize, builtins ...BuiltIn) Kernel {
	var sb strings.Builder
	for kind := FragmentEnable; kind < FragmentStatement; kind++ {
		wrote := false
		for _, f := range b.fragments {
			if f.Kind != kind {
				continue
			}
			if kind == FragmentStruct || kind == FragmentFunction {
				if wrote {
					sb.WriteByte('\n')
				}
			}
			sb.WriteString(f.Text)
			wrote = true
		}
		if wrote {
			sb.WriteByte('\n')
		}
	}

	params := make([]string, len(builtins))
	for i, bi := range builtins {
		params[i] = bi.Param()
	}
	sb.WriteString("@compute ")
	sb.WriteString(wg.Attribute())
	sb.WriteString("\nfn main(")
	sb.WriteString(strings.Join(params, ", "))
	sb.WriteString(") {\n")
	for _, f := range b.fragments {
		if f.Kind == FragmentStatement {
			sb.WriteString(f.Text)
		}
	}
	sb.WriteString("}\n")

	return Kernel{Source: sb.String(), WorkgroupSize: wg}
}

// Kernel is rendered WGSL source with the workgroup size it was built for.
type Kernel struct {
	Source        string
	WorkgroupSize WorkgroupSize
}

func (k Kernel) String() string { return k.Source }
