package wgsl

import "fmt"

// BuiltIn is a compute shader built-in input.
type BuiltIn uint8

// Compute built-ins.
const (
	GlobalInvocationID BuiltIn = iota
	LocalInvocationID
	LocalInvocationIndex
	WorkgroupID
	NumWorkgroups
)

// Name returns the WGSL built-in name, also used as the parameter name.
func (b BuiltIn) Name() string {
	switch b {
	case GlobalInvocationID:
		return "global_invocation_id"
	case LocalInvocationID:
		return "local_invocation_id"
	case LocalInvocationIndex:
		return "local_invocation_index"
	case WorkgroupID:
		return "workgroup_id"
	case NumWorkgroups:
		return "num_workgroups"
	default:
		return fmt.Sprintf("builtin_%d", b)
	}
}

// Type returns the WGSL type of the built-in.
func (b BuiltIn) Type() Type {
	if b == LocalInvocationIndex {
		return U32.Type()
	}
	return U32.Vec(3)
}

// Param renders the built-in as a main entry point parameter.
func (b BuiltIn) Param() string {
	return fmt.Sprintf("@builtin(%s) %s: %s", b.Name(), b.Name(), b.Type())
}

// WorkgroupSize is the invocation grid of one workgroup.
type WorkgroupSize struct {
	X, Y, Z uint32
}

// NewWorkgroupSize returns a workgroup size. Zero dimensions become 1.
func NewWorkgroupSize(x, y, z uint32) WorkgroupSize {
	return WorkgroupSize{X: max(x, 1), Y: max(y, 1), Z: max(z, 1)}
}

// Product returns the number of invocations per workgroup.
func (w WorkgroupSize) Product() uint32 { return w.X * w.Y * w.Z }

// Attribute renders the workgroup_size attribute.
func (w WorkgroupSize) Attribute() string {
	return fmt.Sprintf("@workgroup_size(%d, %d, %d)", w.X, w.Y, w.Z)
}

func (w WorkgroupSize) String() string { return fmt.Sprintf("%dx%dx%d", w.X, w.Y, w.Z) }
