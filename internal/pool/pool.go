package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrResourceUnavailable is returned by TryGetOrCreate when the pool lock
	// is already held and the call must not block.
	ErrResourceUnavailable = errors.New("pool: resource not available")

	// ErrClosed is returned when inserting into a pool that has been closed.
	ErrClosed = errors.New("pool: closed")
)

// poolIDs hands out the generation tag carried by every handle.
// Tags start at 1 so the zero Handle never matches a live pool.
var poolIDs atomic.Uint32

// Handle is an opaque reference to a resource in one Pool instance.
// It carries the owning pool's tag and a 1-based slot index.
// The zero Handle is invalid.
type Handle struct {
	pool uint32
	slot uint32
}

// IsZero reports whether h is the zero (invalid) handle.
func (h Handle) IsZero() bool { return h.slot == 0 }

// Slot returns the 1-based slot index of h within its pool.
func (h Handle) Slot() uint32 { return h.slot }

func (h Handle) String() string {
	if h.IsZero() {
		return "invalid"
	}
	return fmt.Sprintf("%d/%d", h.pool, h.slot)
}

type entry[D comparable, R any] struct {
	desc D
	res  R
}

// Pool caches resources of type R keyed by descriptors of type D.
//
// Pool is safe for concurrent use and must not be copied after creation.
type Pool[D comparable, R any] struct {
	mu      sync.RWMutex
	id      uint32
	handles map[D]Handle
	entries []entry[D, R]
	closed  bool
}

// New creates an empty pool with a fresh generation tag.
func New[D comparable, R any]() *Pool[D, R] {
	return &Pool[D, R]{
		id:      poolIDs.Add(1),
		handles: make(map[D]Handle),
	}
}

// GetOrCreate returns the handle for desc, constructing the resource with
// create when no equal descriptor has been seen before.
//
// create runs under the exclusive lock, at most once per descriptor. If it
// fails, nothing is stored and the error is returned unchanged; a later call
// with the same descriptor will try again.
func (p *Pool[D, R]) GetOrCreate(desc D, create func(D) (R, error)) (Handle, error) {
	if h, ok := p.Lookup(desc); ok {
		return h, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.insertLocked(desc, create)
}

// TryGetOrCreate behaves like GetOrCreate but never blocks on the pool lock.
// It returns ErrResourceUnavailable when the lock is held by another reader
// or writer.
func (p *Pool[D, R]) TryGetOrCreate(desc D, create func(D) (R, error)) (Handle, error) {
	if !p.mu.TryLock() {
		return Handle{}, ErrResourceUnavailable
	}
	defer p.mu.Unlock()
	return p.insertLocked(desc, create)
}

// insertLocked re-checks the table and inserts on a miss.
// Caller must hold p.mu exclusively.
func (p *Pool[D, R]) insertLocked(desc D, create func(D) (R, error)) (Handle, error) {
	if h, ok := p.handles[desc]; ok {
		return h, nil
	}
	if p.closed {
		return Handle{}, ErrClosed
	}

	res, err := create(desc)
	if err != nil {
		return Handle{}, err
	}

	p.entries = append(p.entries, entry[D, R]{desc: desc, res: res})
	h := Handle{pool: p.id, slot: uint32(len(p.entries))} //nolint:gosec // slot count bounded by memory
	p.handles[desc] = h
	return h, nil
}

// Lookup returns the handle for desc without constructing anything.
func (p *Pool[D, R]) Lookup(desc D) (Handle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.handles[desc]
	return h, ok
}

// Len returns the number of cached resources.
func (p *Pool[D, R]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Descriptor returns the descriptor h was created from.
// It panics if h does not belong to this pool.
func (p *Pool[D, R]) Descriptor(h Handle) D {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entryLocked(h).desc
}

// Resources locks the pool for resolving handles.
//
// While the returned accessor is held no new resources can be added.
// The caller must call Release when done.
func (p *Pool[D, R]) Resources() *Accessor[D, R] {
	p.mu.RLock()
	return &Accessor[D, R]{p: p}
}

// Close marks the pool closed and passes every resource, in creation order,
// to release. Further insertions fail with ErrClosed and previously issued
// handles no longer resolve.
func (p *Pool[D, R]) Close(release func(R)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if release != nil {
		for _, e := range p.entries {
			release(e.res)
		}
	}
	p.entries = nil
	p.handles = make(map[D]Handle)
}

// entryLocked resolves h. Caller must hold p.mu.
func (p *Pool[D, R]) entryLocked(h Handle) *entry[D, R] {
	if h.IsZero() {
		panic("pool: resolve of zero handle")
	}
	if h.pool != p.id {
		panic(fmt.Sprintf("pool: handle %s belongs to another pool (tag %d)", h, p.id))
	}
	if int(h.slot) > len(p.entries) {
		panic(fmt.Sprintf("pool: stale handle %s", h))
	}
	return &p.entries[h.slot-1]
}

// Accessor resolves handles while holding the pool's shared lock.
// It is not safe for concurrent use; give each goroutine its own.
type Accessor[D comparable, R any] struct {
	p        *Pool[D, R]
	released bool
}

// Get returns the resource for h.
// It panics if h was not issued by this pool or the accessor was released:
// both are programming errors.
func (a *Accessor[D, R]) Get(h Handle) R {
	if a.released {
		panic("pool: accessor used after Release")
	}
	return a.p.entryLocked(h).res
}

// Release drops the shared lock. Calling Release twice is a no-op.
func (a *Accessor[D, R]) Release() {
	if a.released {
		return
	}
	a.released = true
	a.p.mu.RUnlock()
}
