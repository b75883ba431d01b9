// Package pool provides the descriptor-keyed resource cache that backs every
// GPU object pool.
//
// A [Pool] maps a comparable descriptor to a lazily constructed resource and
// hands out a stable [Handle]. Equal descriptors always yield the same handle
// and the constructor runs at most once per descriptor. Pools never evict:
// this is a build-once cache, not a working-set cache.
//
//	p := pool.New[LayoutDesc, hal.BindGroupLayout]()
//	h, err := p.GetOrCreate(desc, func(d LayoutDesc) (hal.BindGroupLayout, error) {
//	    return device.CreateBindGroupLayout(d.toHAL())
//	})
//
//	res := p.Resources()
//	layout := res.Get(h)
//	res.Release()
//
// # Thread Safety
//
// Every pool is guarded by a reader/writer lock. Resolving handles through an
// [Accessor] holds the shared lock; insertion on a cache miss holds the
// exclusive lock, so no insertion completes while an accessor is alive.
// Never call GetOrCreate on a pool while holding one of its accessors on the
// same goroutine: the exclusive lock would wait for the accessor forever.
package pool
