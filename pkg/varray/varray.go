// Package varray provides a persistent array of fixed-size records on top of
// a [vmem.Memory].
//
// Records are encoded with a [Codec] and laid out back to back in the
// memory's logical byte space: record i occupies bytes [i*size, (i+1)*size).
// The array inherits the memory's paging, so arbitrarily large arrays work
// with a bounded resident footprint, and records survive a close/reopen of
// the underlying memory.
package varray

import (
	"fmt"

	"github.com/calvinalkan/vmem/pkg/vmem"
)

// Codec encodes and decodes one record of a fixed byte size.
//
// Size must be constant for the lifetime of the codec; Encode must fill
// exactly Size bytes of dst and Decode must only read Size bytes of src.
type Codec[T any] interface {
	Size() int
	Encode(dst []byte, v T)
	Decode(src []byte) T
}

// Array is a persistent array of fixed-size records.
//
// It borrows the [vmem.Memory] rather than owning it: the caller remains
// responsible for closing the memory, and multiple arrays (or other users)
// may share one memory as long as their byte ranges do not overlap.
//
// Like the memory itself, an Array is NOT safe for concurrent use.
type Array[T any] struct {
	mem   *vmem.Memory
	codec Codec[T]
	size  int
	buf   []byte // scratch for one encoded record
}

// New returns an array of codec-encoded records over mem.
//
// Possible errors:
//   - [vmem.ErrInvalidInput]: codec reports a non-positive record size
func New[T any](mem *vmem.Memory, codec Codec[T]) (*Array[T], error) {
	size := codec.Size()
	if size <= 0 {
		return nil, fmt.Errorf("record size %d must be positive: %w", size, vmem.ErrInvalidInput)
	}

	return &Array[T]{
		mem:   mem,
		codec: codec,
		size:  size,
		buf:   make([]byte, size),
	}, nil
}

// RecordSize returns the encoded size of one record in bytes.
func (a *Array[T]) RecordSize() int {
	return a.size
}

// Set stores v at index, overwriting any prior record.
//
// Possible errors: [vmem.ErrClosed], [vmem.ErrInvalidInput], [vmem.ErrIO].
func (a *Array[T]) Set(index int, v T) error {
	if index < 0 {
		return fmt.Errorf("negative index %d: %w", index, vmem.ErrInvalidInput)
	}

	a.codec.Encode(a.buf, v)

	start := index * a.size
	for i, b := range a.buf {
		if err := a.mem.Write(start+i, b); err != nil {
			return fmt.Errorf("record %d: %w", index, err)
		}
	}

	return nil
}

// Get returns the record at index, or found=false when no complete record
// was ever stored there. A record is complete only if every one of its bytes
// is present.
//
// Possible errors: [vmem.ErrClosed], [vmem.ErrInvalidInput], [vmem.ErrIO].
func (a *Array[T]) Get(index int) (T, bool, error) {
	var zero T

	if index < 0 {
		return zero, false, fmt.Errorf("negative index %d: %w", index, vmem.ErrInvalidInput)
	}

	start := index * a.size
	for i := range a.size {
		b, ok, err := a.mem.Read(start + i)
		if err != nil {
			return zero, false, fmt.Errorf("record %d: %w", index, err)
		}

		if !ok {
			return zero, false, nil
		}

		a.buf[i] = b
	}

	return a.codec.Decode(a.buf), true, nil
}

// Remove deletes the record at index and returns the prior value, if a
// complete record was present. Partial records are deleted as well but
// report found=false.
//
// Possible errors: [vmem.ErrClosed], [vmem.ErrInvalidInput], [vmem.ErrIO].
func (a *Array[T]) Remove(index int) (T, bool, error) {
	prev, ok, err := a.Get(index)
	if err != nil {
		return prev, false, err
	}

	start := index * a.size
	for i := range a.size {
		if _, _, err := a.mem.Remove(start + i); err != nil {
			return prev, false, fmt.Errorf("record %d: %w", index, err)
		}
	}

	return prev, ok, nil
}
