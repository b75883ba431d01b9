// Package wgsl assembles WGSL compute shaders from typed fragments.
//
// A [Builder] collects fragments (enable directives, structs, bindings,
// workgroup variables, helper functions and main body statements) and
// renders them in a fixed section order, so equal inputs always produce
// byte-identical source:
//
//	b := wgsl.NewBuilder()
//	b.Binding(0, 0, "A", wgsl.Read, wgsl.Vec4.Type(wgsl.F32))
//	b.Binding(0, 1, "Y", wgsl.ReadWrite, wgsl.F32.Type())
//	b.Line("let i = global_invocation_id.x;")
//	k := b.Build(wgsl.NewWorkgroupSize(64, 1, 1), wgsl.GlobalInvocationID)
package wgsl
