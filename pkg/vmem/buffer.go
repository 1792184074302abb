package vmem

import (
	"fmt"
	"unsafe"
)

// inlineThreshold is the storage budget, in bytes, under which a buffer is
// kept inline in the owning struct instead of on the heap. Pages up to a few
// hundred bytes and their bitmaps then load and evict with plain copies and
// no allocator traffic.
const inlineThreshold = 64

// buffer is a fixed-length sequence of T with two mutually exclusive
// representations: inline (a fixed-capacity array plus a logical length) or
// heap (an owned slice). The representation is chosen once at construction
// and never changes.
//
// All indexing is bounds-checked against the logical length, never against
// the physical inline capacity. Out-of-bounds access is a programming error
// and panics.
type buffer[T any] struct {
	length int
	heap   []T // non-nil iff the heap representation was chosen
	inline [inlineThreshold]T
}

// elemSize returns the in-memory size of T in bytes.
func elemSize[T any]() int {
	var zero T

	return int(unsafe.Sizeof(zero))
}

// fitsInline reports whether length elements of T fit the inline budget.
//
// The element-count guard matters only for zero-size T, where the byte
// budget alone would admit any length.
func fitsInline[T any](length int) bool {
	return length <= inlineThreshold && length*elemSize[T]() <= inlineThreshold
}

// newBuffer returns a zero-valued buffer of the given logical length.
func newBuffer[T any](length int) buffer[T] {
	if length < 0 {
		panic(fmt.Sprintf("vmem: negative buffer length %d", length))
	}

	if fitsInline[T](length) {
		return buffer[T]{length: length}
	}

	return buffer[T]{length: length, heap: make([]T, length)}
}

// bufferOf constructs a buffer by copying src. The representation rule is
// the same as in newBuffer; inline cells beyond len(src) stay zero and are
// never exposed.
func bufferOf[T any](src []T) buffer[T] {
	b := newBuffer[T](len(src))
	copy(b.slice(), src)

	return b
}

// at returns the element at index i.
func (b *buffer[T]) at(i int) T {
	b.check(i)

	if b.heap != nil {
		return b.heap[i]
	}

	return b.inline[i]
}

// setAt stores v at index i.
func (b *buffer[T]) setAt(i int, v T) {
	b.check(i)

	if b.heap != nil {
		b.heap[i] = v

		return
	}

	b.inline[i] = v
}

// slice returns a view restricted to the logical length. The view aliases
// the buffer's storage; it is valid until the buffer is copied or dropped.
func (b *buffer[T]) slice() []T {
	if b.heap != nil {
		return b.heap[:b.length]
	}

	return b.inline[:b.length]
}

// len returns the logical length.
func (b *buffer[T]) len() int {
	return b.length
}

// isInline reports whether the inline representation was chosen.
func (b *buffer[T]) isInline() bool {
	return b.heap == nil
}

func (b *buffer[T]) check(i int) {
	if i < 0 || i >= b.length {
		panic(fmt.Sprintf("vmem: index out of range [%d] with length %d", i, b.length))
	}
}
