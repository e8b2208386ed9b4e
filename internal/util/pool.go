package util

import (
	"bytes"
	"strings"
	"sync"
)

// maxPooledCap bounds the capacity of buffers returned to the pools.
const maxPooledCap = 64 << 10

// pool is a typed [sync.Pool] that drops oversized values on release.
type pool[T any] struct {
	p     sync.Pool
	reset func(T) (keep bool)
}

func newPool[T any](alloc func() T, reset func(T) bool) *pool[T] {
	return &pool[T]{
		p:     sync.Pool{New: func() any { return alloc() }},
		reset: reset,
	}
}

func (p *pool[T]) get() T { return p.p.Get().(T) } //nolint:forcetypeassert

func (p *pool[T]) put(v T) {
	if p.reset(v) {
		p.p.Put(v)
	}
}

var bufPool = newPool(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(b *bytes.Buffer) bool {
		b.Reset()
		return b.Cap() <= maxPooledCap
	},
)

var sbPool = newPool(
	func() *strings.Builder {
		sb := new(strings.Builder)
		sb.Grow(256)
		return sb
	},
	func(sb *strings.Builder) bool {
		keep := sb.Cap() <= maxPooledCap
		sb.Reset()
		return keep
	},
)

// GetBytesBuffer takes an empty buffer from the pool.
func GetBytesBuffer() *bytes.Buffer { return bufPool.get() }

// FreeBytesBuffer returns b to the pool, b must not be used afterwards.
func FreeBytesBuffer(b *bytes.Buffer) { bufPool.put(b) }

// GetStringBuilder takes an empty builder from the pool.
func GetStringBuilder() *strings.Builder { return sbPool.get() }

// FreeStringBuilder returns sb to the pool, sb must not be used afterwards.
func FreeStringBuilder(sb *strings.Builder) { sbPool.put(sb) }
