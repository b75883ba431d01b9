package gpu

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBufferPoolIdempotent(t *testing.T) {
	dev := newTestDevice(t)
	bufs := dev.Buffers()

	desc := BufferDescriptor{Label: "a", Size: 256, Usage: StorageUsage}
	h1, err := bufs.GetOrCreate(desc)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	h2, err := bufs.GetOrCreate(desc)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if h1 != h2 {
		t.Errorf("equal descriptors returned %v and %v", h1, h2)
	}
	if bufs.Len() != 1 {
		t.Errorf("Len() = %d, want 1", bufs.Len())
	}
	if got := bufs.Descriptor(h1); got != desc {
		t.Errorf("Descriptor() = %+v, want %+v", got, desc)
	}
}

func TestBufferPoolDistinct(t *testing.T) {
	dev := newTestDevice(t)
	bufs := dev.Buffers()

	descs := []BufferDescriptor{
		{Label: "a", Size: 256, Usage: StorageUsage},
		{Label: "a", Size: 512, Usage: StorageUsage},
		{Label: "b", Size: 256, Usage: StorageUsage},
		{Label: "a", Size: 256, Usage: UniformUsage},
	}
	seen := make(map[BufferHandle]bool)
	for _, d := range descs {
		h, err := bufs.GetOrCreate(d)
		if err != nil {
			t.Fatalf("GetOrCreate(%+v) failed: %v", d, err)
		}
		if seen[h] {
			t.Errorf("descriptor %+v reused handle %v", d, h)
		}
		seen[h] = true
	}
	if bufs.Len() != len(descs) {
		t.Errorf("Len() = %d, want %d", bufs.Len(), len(descs))
	}
}

func TestBufferPoolMinimumSize(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.Buffers().GetOrCreate(BufferDescriptor{Label: "empty", Usage: StorageUsage})
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if got := dev.Buffers().Size(h); got != minBufferSize {
		t.Errorf("Size() = %d, want %d", got, minBufferSize)
	}
}

func TestBufferPoolConcurrent(t *testing.T) {
	dev := newTestDevice(t)
	desc := BufferDescriptor{Label: "shared", Size: 1024, Usage: StorageUsage}

	const n = 32
	handles := make([]BufferHandle, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := dev.Buffers().GetOrCreate(desc)
			if err != nil {
				t.Errorf("GetOrCreate failed: %v", err)
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()

	for i, h := range handles {
		if h != handles[0] {
			t.Errorf("goroutine %d got %v, want %v", i, h, handles[0])
		}
	}
	if dev.Buffers().Len() != 1 {
		t.Errorf("Len() = %d, want 1", dev.Buffers().Len())
	}
}

func TestCreateBufferInit(t *testing.T) {
	dev := newTestDevice(t)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	h, err := dev.CreateBufferInit(BufferDescriptor{Label: "init", Usage: StorageUsage}, data)
	if err != nil {
		t.Fatalf("CreateBufferInit failed: %v", err)
	}
	if got := dev.Buffers().Descriptor(h).Size; got != uint64(len(data)) {
		t.Errorf("Size = %d, want %d", got, len(data))
	}
}

func TestCreateBufferInitContended(t *testing.T) {
	dev := newTestDevice(t)

	acc := dev.Buffers().Resources()
	_, err := dev.CreateBufferInit(BufferDescriptor{Label: "init", Usage: StorageUsage}, []byte{1, 2, 3, 4})
	acc.Release()

	if !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("err = %v, want ErrResourceUnavailable", err)
	}
	if dev.Buffers().Len() != 0 {
		t.Errorf("contended call inserted a buffer")
	}
}

func TestBindGroupLayouts(t *testing.T) {
	tests := []struct {
		name   string
		desc   BindGroupLayoutDescriptor
		len    int
		inputs int
	}{
		{"inplace", Inplace(), 1, 0},
		{"unary", Unary(), 2, 1},
		{"binary", Binary(), 3, 2},
		{"ternary", Ternary(), 4, 3},
		{"nary4", Nary(4), 5, 4},
		{"uniform", Uniform(), 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.desc.Len != tt.len {
				t.Errorf("Len = %d, want %d", tt.desc.Len, tt.len)
			}
			if got := tt.desc.Inputs(); got != tt.inputs {
				t.Errorf("Inputs() = %d, want %d", got, tt.inputs)
			}
			if tt.desc != Uniform() && tt.desc.Entries[tt.len-1] != BindingReadWrite {
				t.Errorf("last binding is %v, want read_write", tt.desc.Entries[tt.len-1])
			}
		})
	}
}

func TestNaryTooLarge(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Nary(MaxBindings) did not panic")
		}
	}()
	Nary(MaxBindings)
}

func TestBindGroupLayoutPool(t *testing.T) {
	dev := newTestDevice(t)
	layouts := dev.BindGroupLayouts()

	b1, err := layouts.GetOrCreate(Binary())
	if err != nil {
		t.Fatalf("GetOrCreate(Binary) failed: %v", err)
	}
	b2, _ := layouts.GetOrCreate(Binary())
	tern, _ := layouts.GetOrCreate(Ternary())
	if b1 != b2 {
		t.Errorf("Binary() handles differ: %v, %v", b1, b2)
	}
	if b1 == tern {
		t.Errorf("Binary() and Ternary() share handle %v", b1)
	}
	if layouts.Len() != 2 {
		t.Errorf("Len() = %d, want 2", layouts.Len())
	}

	if _, err := layouts.GetOrCreate(BindGroupLayoutDescriptor{}); err == nil {
		t.Error("empty layout accepted")
	}
	if layouts.Len() != 2 {
		t.Errorf("failed creation was cached: Len() = %d", layouts.Len())
	}
}

func TestBindGroupPool(t *testing.T) {
	dev := newTestDevice(t)

	layout, err := dev.BindGroupLayouts().GetOrCreate(Binary())
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	var bufs []BufferHandle
	for _, label := range []string{"a", "b", "y"} {
		h, err := dev.Buffers().GetOrCreate(BufferDescriptor{Label: label, Size: 64, Usage: StorageUsage})
		if err != nil {
			t.Fatalf("buffer %s: %v", label, err)
		}
		bufs = append(bufs, h)
	}

	desc := NewBindGroupDescriptor(layout, bufs...)
	g1, err := dev.BindGroups().GetOrCreate(desc)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	g2, err := dev.BindGroups().GetOrCreate(desc)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if g1 != g2 {
		t.Errorf("equal descriptors returned %v and %v", g1, g2)
	}

	swapped := NewBindGroupDescriptor(layout, bufs[1], bufs[0], bufs[2])
	g3, err := dev.BindGroups().GetOrCreate(swapped)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if g3 == g1 {
		t.Error("different buffer order shares a bind group")
	}
	if dev.BindGroups().Len() != 2 {
		t.Errorf("Len() = %d, want 2", dev.BindGroups().Len())
	}

	if _, err := dev.BindGroups().GetOrCreate(NewBindGroupDescriptor(layout, bufs[0])); err == nil {
		t.Error("bind group with too few entries accepted")
	}
}

func TestBindGroupRanges(t *testing.T) {
	dev := newTestDevice(t)
	layout, err := dev.BindGroupLayouts().GetOrCreate(Unary())
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	in, _ := dev.Buffers().GetOrCreate(BufferDescriptor{Label: "in", Size: 64, Usage: StorageUsage})
	out, _ := dev.Buffers().GetOrCreate(BufferDescriptor{Label: "out", Size: 64, Usage: StorageUsage})

	tests := []struct {
		name    string
		entry   BindGroupEntry
		wantErr bool
	}{
		{"whole buffer", BindGroupEntry{Buffer: in}, false},
		{"tail from offset", BindGroupEntry{Buffer: in, Offset: 16}, false},
		{"exact range", BindGroupEntry{Buffer: in, Offset: 32, Size: 32}, false},
		{"offset past end", BindGroupEntry{Buffer: in, Offset: 128}, true},
		{"offset at end", BindGroupEntry{Buffer: in, Offset: 64}, true},
		{"range past end", BindGroupEntry{Buffer: in, Offset: 32, Size: 64}, true},
		{"size past end", BindGroupEntry{Buffer: in, Size: 65}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := dev.BindGroups().Len()
			desc := NewBindGroupDescriptor(layout, in, out)
			desc.Entries[0] = tt.entry

			_, err := dev.BindGroups().GetOrCreate(desc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && dev.BindGroups().Len() != before {
				t.Errorf("Len() = %d after rejected range, want %d", dev.BindGroups().Len(), before)
			}
		})
	}
}

func TestBindGroupForeignHandleReleasesLocks(t *testing.T) {
	devA := newTestDevice(t)
	devB := newTestDevice(t)

	foreign, _ := devA.Buffers().GetOrCreate(BufferDescriptor{Label: "foreign", Size: 64, Usage: StorageUsage})
	layout, _ := devB.BindGroupLayouts().GetOrCreate(Inplace())

	func() {
		defer func() {
			if recover() == nil {
				t.Error("bind group over a foreign buffer did not panic")
			}
		}()
		_, _ = devB.BindGroups().GetOrCreate(NewBindGroupDescriptor(layout, foreign))
	}()

	done := make(chan error, 1)
	go func() {
		h, err := devB.Buffers().GetOrCreate(BufferDescriptor{Label: "own", Size: 64, Usage: StorageUsage})
		if err == nil {
			_, err = devB.BindGroupLayouts().GetOrCreate(Unary())
		}
		if err == nil {
			_, err = devB.BindGroups().GetOrCreate(NewBindGroupDescriptor(layout, h))
		}
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("pools unusable after panic: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool lock still held after panic")
	}
}

func TestPipelineLayoutPool(t *testing.T) {
	dev := newTestDevice(t)
	storage, _ := dev.BindGroupLayouts().GetOrCreate(Binary())
	uniform, _ := dev.BindGroupLayouts().GetOrCreate(Uniform())

	p1, err := dev.PipelineLayouts().GetOrCreate(NewPipelineLayoutDescriptor(storage, uniform))
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	p2, _ := dev.PipelineLayouts().GetOrCreate(NewPipelineLayoutDescriptor(storage, uniform))
	p3, _ := dev.PipelineLayouts().GetOrCreate(NewPipelineLayoutDescriptor(storage))
	if p1 != p2 {
		t.Errorf("equal descriptors returned %v and %v", p1, p2)
	}
	if p1 == p3 {
		t.Error("different group lists share a pipeline layout")
	}
	if _, err := dev.PipelineLayouts().GetOrCreate(PipelineLayoutDescriptor{}); err == nil {
		t.Error("empty pipeline layout accepted")
	}
}

func TestKernelSourcePool(t *testing.T) {
	dev := newTestDevice(t)
	srcs := dev.KernelSources()

	a := KernelSource{Key: "k", Source: "fn main() {}"}
	h1, _ := srcs.GetOrCreate(a)
	h2, _ := srcs.GetOrCreate(a)
	h3, _ := srcs.GetOrCreate(KernelSource{Key: "k", Source: "fn main() { }"})
	if h1 != h2 {
		t.Errorf("equal sources returned %v and %v", h1, h2)
	}
	if h1 == h3 {
		t.Error("different text shares a handle")
	}
	if got := srcs.Source(h1); got != a {
		t.Errorf("Source() = %+v, want %+v", got, a)
	}

	acc := srcs.Resources()
	defer acc.Release()
	if got := acc.Get(h3); got != "fn main() { }" {
		t.Errorf("Get() = %q", got)
	}
}

func TestForeignHandlePanics(t *testing.T) {
	devA := newTestDevice(t)
	devB := newTestDevice(t)

	h, err := devA.Buffers().GetOrCreate(BufferDescriptor{Label: "a", Size: 4, Usage: StorageUsage})
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if _, err := devB.Buffers().GetOrCreate(BufferDescriptor{Label: "a", Size: 4, Usage: StorageUsage}); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	acc := devB.Buffers().Resources()
	defer acc.Release()
	defer func() {
		if recover() == nil {
			t.Error("resolving a handle from another device did not panic")
		}
	}()
	acc.Get(h)
}

func TestHandleString(t *testing.T) {
	var h ComputePipelineHandle
	if !h.IsZero() {
		t.Error("zero handle is not IsZero")
	}
	if got := h.String(); got != "cp:invalid" {
		t.Errorf("String() = %q, want cp:invalid", got)
	}
}
