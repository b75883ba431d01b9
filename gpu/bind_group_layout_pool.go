package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ratchet/internal/pool"
)

// MaxBindings is the largest number of bindings in one bind group.
const MaxBindings = 8

// BindingKind is the buffer binding type of one bind group layout slot.
type BindingKind uint8

// Binding kinds.
const (
	BindingNone BindingKind = iota
	BindingReadOnly
	BindingReadWrite
	BindingUniform
)

func (k BindingKind) String() string {
	switch k {
	case BindingReadOnly:
		return "read"
	case BindingReadWrite:
		return "read_write"
	case BindingUniform:
		return "uniform"
	default:
		return "none"
	}
}

func (k BindingKind) bufferLayout() *gputypes.BufferBindingLayout {
	switch k {
	case BindingReadWrite:
		return &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
	case BindingUniform:
		return &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	default:
		return &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	}
}

// BindGroupLayoutDescriptor describes a bind group layout as the kinds of
// its first Len bindings. Binding numbers are the slot positions.
type BindGroupLayoutDescriptor struct {
	Entries [MaxBindings]BindingKind
	Len     int
}

// Nary returns a layout with n read-only storage inputs followed by one
// read-write storage output.
func Nary(n int) BindGroupLayoutDescriptor {
	if n < 0 || n+1 > MaxBindings {
		panic(fmt.Sprintf("gpu: Nary(%d) exceeds %d bindings", n, MaxBindings))
	}
	var d BindGroupLayoutDescriptor
	for i := range n {
		d.Entries[i] = BindingReadOnly
	}
	d.Entries[n] = BindingReadWrite
	d.Len = n + 1
	return d
}

// Inplace returns the layout of an in-place kernel: one read-write buffer.
func Inplace() BindGroupLayoutDescriptor { return Nary(0) }

// Unary returns the layout of a kernel with one input and one output.
func Unary() BindGroupLayoutDescriptor { return Nary(1) }

// Binary returns the layout of a kernel with two inputs and one output.
func Binary() BindGroupLayoutDescriptor { return Nary(2) }

// Ternary returns the layout of a kernel with three inputs and one output.
func Ternary() BindGroupLayoutDescriptor { return Nary(3) }

// Uniform returns the layout of the op metadata group: a single uniform
// buffer.
func Uniform() BindGroupLayoutDescriptor {
	var d BindGroupLayoutDescriptor
	d.Entries[0] = BindingUniform
	d.Len = 1
	return d
}

// Inputs returns the number of read-only storage bindings.
func (d BindGroupLayoutDescriptor) Inputs() int {
	n := 0
	for _, k := range d.Entries[:d.Len] {
		if k == BindingReadOnly {
			n++
		}
	}
	return n
}

func (d BindGroupLayoutDescriptor) String() string {
	return fmt.Sprintf("bgl%v", d.Entries[:d.Len])
}

// BindGroupLayoutPool caches bind group layouts by descriptor.
type BindGroupLayoutPool struct {
	device hal.Device
	inner  *pool.Pool[BindGroupLayoutDescriptor, hal.BindGroupLayout]
}

func newBindGroupLayoutPool(device hal.Device) *BindGroupLayoutPool {
	return &BindGroupLayoutPool{
		device: device,
		inner:  pool.New[BindGroupLayoutDescriptor, hal.BindGroupLayout](),
	}
}

func (p *BindGroupLayoutPool) create(desc BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	if desc.Len <= 0 || desc.Len > MaxBindings {
		return nil, fmt.Errorf("gpu: bind group layout with %d bindings", desc.Len)
	}
	entries := make([]gputypes.BindGroupLayoutEntry, desc.Len)
	for i, kind := range desc.Entries[:desc.Len] {
		if kind == BindingNone {
			return nil, fmt.Errorf("gpu: bind group layout slot %d has no binding kind", i)
		}
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i), //nolint:gosec // i < MaxBindings
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     kind.bufferLayout(),
		}
	}
	slogger().Debug("gpu: create bind group layout", "layout", desc.String())
	return p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.String(),
		Entries: entries,
	})
}

// GetOrCreate returns the layout for desc, creating it on first use.
func (p *BindGroupLayoutPool) GetOrCreate(desc BindGroupLayoutDescriptor) (BindGroupLayoutHandle, error) {
	h, err := p.inner.GetOrCreate(desc, p.create)
	return BindGroupLayoutHandle{h}, err
}

// Descriptor returns the descriptor h was created from.
func (p *BindGroupLayoutPool) Descriptor(h BindGroupLayoutHandle) BindGroupLayoutDescriptor {
	return p.inner.Descriptor(h.h)
}

// Len returns the number of pooled layouts.
func (p *BindGroupLayoutPool) Len() int { return p.inner.Len() }

// Resources returns a read-lock accessor over the pool.
func (p *BindGroupLayoutPool) Resources() *Accessor[BindGroupLayoutHandle, hal.BindGroupLayout] {
	return newAccessor[BindGroupLayoutDescriptor, BindGroupLayoutHandle](p.inner.Resources())
}

func (p *BindGroupLayoutPool) destroy() {
	p.inner.Close(func(l hal.BindGroupLayout) { p.device.DestroyBindGroupLayout(l) })
}
