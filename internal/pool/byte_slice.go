package pool

import "sync"

const defaultByteSliceCap = 64

// ByteSlicePool hands out zero length byte slices and recycles them
// through a sync.Pool.
type ByteSlicePool struct {
	pool sync.Pool
}

var byteSlicePool = &ByteSlicePool{
	pool: sync.Pool{
		New: func() interface{} {
			b := make([]byte, 0, defaultByteSliceCap)
			return &b
		},
	},
}

// ByteSlice returns the shared pool of byte slices.
func ByteSlice() *ByteSlicePool {
	return byteSlicePool
}

// Get returns a slice with zero length and at least the default capacity.
func (p *ByteSlicePool) Get() []byte {
	return *(p.pool.Get().(*[]byte))
}

// GetCapacity returns a slice with zero length and a capacity of at
// least n.
func (p *ByteSlicePool) GetCapacity(n int) []byte {
	b := p.Get()
	if cap(b) < n {
		p.Put(b)
		return make([]byte, 0, n)
	}
	return b
}

// Put truncates b to zero length and returns it to the pool.
func (p *ByteSlicePool) Put(b []byte) {
	b = b[:0]
	p.pool.Put(&b)
}
