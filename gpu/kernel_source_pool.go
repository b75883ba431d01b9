package gpu

import (
	"github.com/gogpu/ratchet/internal/pool"
)

// KernelSource is generated shader text with the key it was rendered for.
type KernelSource struct {
	Key    string
	Source string
}

// KernelSourcePool stores runtime-generated WGSL. Equal key and text yield
// the same handle, so a kernel rendered twice is stored once.
type KernelSourcePool struct {
	inner *pool.Pool[KernelSource, string]
}

func newKernelSourcePool() *KernelSourcePool {
	return &KernelSourcePool{inner: pool.New[KernelSource, string]()}
}

// GetOrCreate stores src and returns its handle.
func (p *KernelSourcePool) GetOrCreate(src KernelSource) (KernelSourceHandle, error) {
	h, err := p.inner.GetOrCreate(src, func(s KernelSource) (string, error) {
		slogger().Debug("gpu: store kernel source", "key", s.Key, "bytes", len(s.Source))
		return s.Source, nil
	})
	return KernelSourceHandle{h}, err
}

// Source returns the entry stored under h.
func (p *KernelSourcePool) Source(h KernelSourceHandle) KernelSource { return p.inner.Descriptor(h.h) }

// Len returns the number of stored sources.
func (p *KernelSourcePool) Len() int { return p.inner.Len() }

// Resources returns a read-lock accessor over the pool.
func (p *KernelSourcePool) Resources() *Accessor[KernelSourceHandle, string] {
	return newAccessor[KernelSource, KernelSourceHandle](p.inner.Resources())
}

func (p *KernelSourcePool) destroy() { p.inner.Close(nil) }
