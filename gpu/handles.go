package gpu

import "github.com/gogpu/ratchet/internal/pool"

// Handles identify pooled GPU objects. They are small comparable values,
// valid only for the pool (and therefore the Device) that issued them.
// The zero value of every handle is invalid.

// BufferHandle identifies a pooled buffer.
type BufferHandle struct{ h pool.Handle }

// BindGroupLayoutHandle identifies a pooled bind group layout.
type BindGroupLayoutHandle struct{ h pool.Handle }

// BindGroupHandle identifies a pooled bind group.
type BindGroupHandle struct{ h pool.Handle }

// PipelineLayoutHandle identifies a pooled pipeline layout.
type PipelineLayoutHandle struct{ h pool.Handle }

// ComputePipelineHandle identifies a pooled compute pipeline.
type ComputePipelineHandle struct{ h pool.Handle }

// KernelSourceHandle identifies generated shader source in the kernel
// source pool.
type KernelSourceHandle struct{ h pool.Handle }

// IsZero reports whether the handle is the invalid zero value.
func (b BufferHandle) IsZero() bool { return b.h.IsZero() }

// IsZero reports whether the handle is the invalid zero value.
func (b BindGroupLayoutHandle) IsZero() bool { return b.h.IsZero() }

// IsZero reports whether the handle is the invalid zero value.
func (b BindGroupHandle) IsZero() bool { return b.h.IsZero() }

// IsZero reports whether the handle is the invalid zero value.
func (p PipelineLayoutHandle) IsZero() bool { return p.h.IsZero() }

// IsZero reports whether the handle is the invalid zero value.
func (c ComputePipelineHandle) IsZero() bool { return c.h.IsZero() }

// IsZero reports whether the handle is the invalid zero value.
func (k KernelSourceHandle) IsZero() bool { return k.h.IsZero() }

func (b BufferHandle) String() string          { return "buffer:" + b.h.String() }
func (b BindGroupLayoutHandle) String() string { return "bgl:" + b.h.String() }
func (b BindGroupHandle) String() string       { return "bg:" + b.h.String() }
func (p PipelineLayoutHandle) String() string  { return "pl:" + p.h.String() }
func (c ComputePipelineHandle) String() string { return "cp:" + c.h.String() }
func (k KernelSourceHandle) String() string    { return "src:" + k.h.String() }

// resourceHandle is satisfied by every typed handle in this package.
type resourceHandle interface {
	comparable
	raw() pool.Handle
}

func (b BufferHandle) raw() pool.Handle          { return b.h }
func (b BindGroupLayoutHandle) raw() pool.Handle { return b.h }
func (b BindGroupHandle) raw() pool.Handle       { return b.h }
func (p PipelineLayoutHandle) raw() pool.Handle  { return p.h }
func (c ComputePipelineHandle) raw() pool.Handle { return c.h }
func (k KernelSourceHandle) raw() pool.Handle    { return k.h }

// Accessor resolves typed handles to resources while holding the shared
// lock of one pool. No resource can be added to that pool until Release is
// called. Release before calling GetOrCreate on the same pool.
type Accessor[H resourceHandle, R any] struct {
	get     func(pool.Handle) R
	release func()
}

func newAccessor[D comparable, H resourceHandle, R any](a *pool.Accessor[D, R]) *Accessor[H, R] {
	return &Accessor[H, R]{get: a.Get, release: a.Release}
}

// Get returns the resource for h. It panics if h was not issued by the
// pool this accessor was taken from.
func (a *Accessor[H, R]) Get(h H) R { return a.get(h.raw()) }

// Release drops the shared lock. It is safe to call more than once.
func (a *Accessor[H, R]) Release() { a.release() }
