package vmem

import "time"

// page is one fixed-size window of the logical address space: the unit of
// caching and persistence. A resident page is owned exclusively by its pool.
//
// Invariant: valid.get(i) is true iff data[i] holds caller-written content.
type page struct {
	index      int
	dirty      bool
	lastAccess time.Time
	valid      bitmap
	data       buffer[byte]
}

// newPage constructs a page from the raw store bytes of its slot. raw is
// split into a bitmap prefix of ceil(capacity/8) bytes and a payload of
// capacity bytes; trailing slack in the slot is ignored. The page starts
// clean with lastAccess set to now.
func newPage(index, capacity int, raw []byte) *page {
	prefix := bitmapBytes(capacity)

	return &page{
		index:      index,
		lastAccess: time.Now(),
		valid:      bitmapOf(raw[:prefix]),
		data:       bufferOf(raw[prefix : prefix+capacity]),
	}
}

// setValue writes b at the in-page offset, marks it valid, and dirties the
// page.
func (p *page) setValue(offset int, b byte) {
	p.dirty = true
	p.lastAccess = time.Now()
	p.valid.set(offset)
	p.data.setAt(offset, b)
}

// getValue returns the byte at the in-page offset, or found=false when no
// value was ever written there. A hit refreshes lastAccess; a miss has no
// side effects.
func (p *page) getValue(offset int) (byte, bool) {
	if !p.valid.get(offset) {
		return 0, false
	}

	p.lastAccess = time.Now()

	return p.data.at(offset), true
}

// removeValue clears the validity bit and zeroes the payload slot, then
// dirties the page. The payload never shrinks: offsets of all other bytes
// in the page are stable across removals.
func (p *page) removeValue(offset int) {
	p.dirty = true
	p.lastAccess = time.Now()
	p.valid.clear(offset)
	p.data.setAt(offset, 0)
}
