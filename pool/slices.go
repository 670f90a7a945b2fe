// Package pool provides sync.Pool wrappers for reducing GC pressure during
// evaluation.
package pool

import "sync"

// ByteSlice provides a pooled []byte for temporary buffers.
var byteSlicePool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

// AcquireByteSlice gets a byte slice from the pool.
func AcquireByteSlice() *[]byte {
	b := byteSlicePool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// ReleaseByteSlice returns a byte slice to the pool.
func ReleaseByteSlice(b *[]byte) {
	if b == nil {
		return
	}
	// Don't return oversized slices
	if cap(*b) <= 4096 {
		byteSlicePool.Put(b)
	}
}

// MapPool provides pooled maps for temporary use, such as the local
// evaluated-property sets of object schemas.
type MapPool[K comparable, V any] struct {
	pool sync.Pool
	cap  int
}

// NewMapPool creates a new pool for maps with the given initial capacity.
func NewMapPool[K comparable, V any](initialCap int) *MapPool[K, V] {
	return &MapPool[K, V]{
		pool: sync.Pool{
			New: func() any {
				return make(map[K]V, initialCap)
			},
		},
		cap: initialCap,
	}
}

// Acquire gets an empty map from the pool.
func (p *MapPool[K, V]) Acquire() map[K]V {
	return p.pool.Get().(map[K]V)
}

// Release clears m and returns it to the pool.
func (p *MapPool[K, V]) Release(m map[K]V) {
	if m == nil {
		return
	}
	n := len(m)
	clear(m)
	// Don't keep maps that grew far past the initial size
	if n <= p.cap*4 {
		p.pool.Put(m)
	}
}
