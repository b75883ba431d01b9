// Package ops holds tensor operations that render specialized kernels.
//
// An operation chooses its bind group layout from its operand types,
// renders WGSL for a kernel element width, computes its metadata uniform
// and dispatch size, and can be prepared into a pooled compute pipeline
// with [Prepare].
package ops
