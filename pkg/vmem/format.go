package vmem

// Swap file layout:
//
//	[0,2)                       ASCII signature "VM"
//	[2+p*pageSize, 2+(p+1)*pageSize)   slot for page p
//
// Within a slot the first ceil(dataCapacity/8) bytes are the validity
// bitmap, followed by dataCapacity payload bytes. Slot p is always at a
// fixed computable offset; there is no index or free list, so never-written
// slots occupy file space implicitly (the OS keeps them sparse).

// signature identifies a vmem swap file.
var signature = [2]byte{'V', 'M'}

// signatureSize is the length of the file signature in bytes.
const signatureSize = len(signature)

// dataCapacity returns the number of payload bytes per page for a given
// page size. One bitmap bit is budgeted per payload byte, so a page splits
// into 9 parts: 8 bits worth of one payload byte plus 1 bitmap bit.
//
// For pageSize 9 this yields 8; for 16 it yields 14.
func dataCapacity(pageSize int) int {
	return pageSize * bitsPerByte / 9
}

// bitmapBytes returns the size of the validity bitmap for a page with the
// given payload capacity.
func bitmapBytes(capacity int) int {
	return ceilDiv(capacity, bitsPerByte)
}

// pageOffset returns the on-store byte offset of page p.
func pageOffset(pageSize, p int) int64 {
	return int64(p)*int64(pageSize) + int64(signatureSize)
}

// ceilDiv divides and rounds up.
func ceilDiv(dividend, divisor int) int {
	return (dividend + divisor - 1) / divisor
}
