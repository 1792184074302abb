package varray

import (
	"encoding/binary"
	"fmt"

	"github.com/calvinalkan/vmem/pkg/vmem"
)

// Binary is a [Codec] for fixed-size values using [encoding/binary]: structs
// of fixed-size fields, fixed-size numeric types, and arrays of either.
//
// The zero value is not usable; construct with [NewBinary].
type Binary[T any] struct {
	order binary.ByteOrder
	size  int
}

// NewBinary returns a little-endian binary codec for T.
//
// Possible errors:
//   - [vmem.ErrInvalidInput]: T has no fixed encoded size (it contains
//     slices, maps, strings, or pointers)
func NewBinary[T any]() (Binary[T], error) {
	var zero T

	size := binary.Size(zero)
	if size <= 0 {
		return Binary[T]{}, fmt.Errorf("type %T has no fixed binary size: %w", zero, vmem.ErrInvalidInput)
	}

	return Binary[T]{order: binary.LittleEndian, size: size}, nil
}

// Size returns the encoded size of T in bytes.
func (b Binary[T]) Size() int {
	return b.size
}

// Encode writes the little-endian encoding of v into dst.
func (b Binary[T]) Encode(dst []byte, v T) {
	// Size is validated at construction, so Encode cannot fail on a
	// correctly sized dst.
	if _, err := binary.Encode(dst, b.order, v); err != nil {
		panic(fmt.Sprintf("varray: encoding %T: %v", v, err))
	}
}

// Decode reads a value of T from src.
func (b Binary[T]) Decode(src []byte) T {
	var v T

	if _, err := binary.Decode(src, b.order, &v); err != nil {
		panic(fmt.Sprintf("varray: decoding %T: %v", v, err))
	}

	return v
}

// Compile-time interface check.
var _ Codec[uint64] = Binary[uint64]{}
