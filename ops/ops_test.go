package ops

import (
	"testing"

	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/ratchet/gpu"
)

// newTestDevice opens a Device on the noop backend.
func newTestDevice(t *testing.T, opts ...gpu.Option) *gpu.Device {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	t.Cleanup(func() { instance.Destroy() })

	opts = append([]gpu.Option{gpu.WithInstance(instance), gpu.WithChecked(false)}, opts...)
	dev, err := gpu.NewDevice(opts...)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	t.Cleanup(dev.Destroy)
	return dev
}

// mustGEMV builds an [m, k] x [k, 1] product.
func mustGEMV(t *testing.T, a, b DType, m, k int, opts ...GEMVOption) *GEMV {
	t.Helper()
	g, err := NewGEMV(NewTensorDesc(a, m, k), NewTensorDesc(b, k, 1), opts...)
	if err != nil {
		t.Fatalf("NewGEMV(%s, %s) failed: %v", a, b, err)
	}
	return g
}

func bias(m int) GEMVOption { return WithBias(NewTensorDesc(F32, m)) }

func mustBatchedGEMV(t *testing.T, batch, m, k int) *GEMV {
	t.Helper()
	g, err := NewGEMV(NewTensorDesc(F32, batch, m, k), NewTensorDesc(F32, k, 1))
	if err != nil {
		t.Fatalf("NewGEMV failed: %v", err)
	}
	return g
}
