package vmem

import "fmt"

// bitsPerByte is the number of validity bits packed into one bitmap byte.
const bitsPerByte = 8

// bitmap tracks one validity bit per byte offset of a page. Bit i lives in
// byte i/8 at position i%8, least-significant bit first.
//
// A bitmap is owned exclusively by its page.
type bitmap struct {
	bits int
	data buffer[byte]
}

// newBitmap returns an all-clear bitmap with capacity for the given number
// of bits, backed by ceil(bits/8) bytes.
func newBitmap(bits int) bitmap {
	return bitmap{
		bits: bits,
		data: newBuffer[byte](ceilDiv(bits, bitsPerByte)),
	}
}

// bitmapOf reinterprets raw bytes as a bitmap. The bit capacity is the byte
// count times eight, mirroring the round-up in newBitmap.
func bitmapOf(raw []byte) bitmap {
	return bitmap{
		bits: len(raw) * bitsPerByte,
		data: bufferOf(raw),
	}
}

// get reports whether bit i is set. Access beyond the declared capacity is
// a programming error and panics.
func (bm *bitmap) get(i int) bool {
	if i < 0 || i >= bm.bits {
		panic(fmt.Sprintf("vmem: bit index out of range [%d] with capacity %d", i, bm.bits))
	}

	return bm.data.at(i/bitsPerByte)&(1<<(i%bitsPerByte)) != 0
}

// set sets bit i to 1.
func (bm *bitmap) set(i int) {
	byteIndex := i / bitsPerByte
	bm.data.setAt(byteIndex, bm.data.at(byteIndex)|1<<(i%bitsPerByte))
}

// clear sets bit i to 0.
func (bm *bitmap) clear(i int) {
	byteIndex := i / bitsPerByte
	bm.data.setAt(byteIndex, bm.data.at(byteIndex)&^(1<<(i%bitsPerByte)))
}

// flip inverts bit i.
func (bm *bitmap) flip(i int) {
	byteIndex := i / bitsPerByte
	bm.data.setAt(byteIndex, bm.data.at(byteIndex)^1<<(i%bitsPerByte))
}

// bytes exposes the raw backing bytes for persistence.
func (bm *bitmap) bytes() []byte {
	return bm.data.slice()
}
