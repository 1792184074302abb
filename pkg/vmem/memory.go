package vmem

import (
	"container/list"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/calvinalkan/vmem/pkg/fs"
)

// Store is the persistent byte sink behind a [Memory]: any randomly
// addressable, readable, writable store. A local file is the expected
// instance.
//
// WriteAt past the current end must extend the store with zeros, and ReadAt
// past the end must return [io.EOF] after filling what exists; *os.File and
// [fs.File] both behave this way.
type Store interface {
	io.ReaderAt
	io.WriterAt
}

// Memory is a byte-addressable virtual memory handle.
//
// A Memory must be obtained via [Open] or [New]; the zero value is not
// usable. It exclusively owns its resident pages and its store handle. It is
// NOT safe for concurrent use.
type Memory struct {
	_ [0]func() // prevent external construction

	store  Store
	closer io.Closer // closes the swap file when Open owns it, else nil
	lock   io.Closer // releases the swap file lock, else nil

	pageSize int
	capacity int // payload bytes per page
	pool     int // maximum resident pages

	resident map[int]*list.Element // page index -> element in lru
	lru      *list.List            // front = most recently accessed; values are *page

	maxOffset int // highest logical offset that may hold a value
	closed    bool

	stats Stats
}

// Stats are cumulative counters for one [Memory] instance.
type Stats struct {
	// PageFaults counts pages loaded from the store.
	PageFaults uint64

	// Evictions counts resident pages dropped to make room.
	Evictions uint64

	// Flushes counts dirty pages written back to the store.
	Flushes uint64
}

// PageInfo describes one resident page. Returned by [Memory.Pages].
type PageInfo struct {
	Index      int
	Dirty      bool
	LastAccess time.Time
}

// Open opens or creates a swap file at opts.Path and returns a virtual
// memory over it.
//
// A new or empty file gets the 2-byte "VM" signature written; an existing
// file must start with it. Previously flushed pages of an existing file
// remain readable, so a write/close/reopen cycle round-trips all data.
//
// The returned Memory must be closed with [Memory.Close]; Close flushes
// every remaining dirty page.
//
// Possible errors:
//   - [ErrInvalidInput]: empty path, PageSize <= 1, PoolPages <= 2
//   - [ErrBusy]: another process holds the swap file lock
//   - [ErrCorrupt]: the file exists but is not a vmem swap file
//   - [ErrIO]: opening, reading, or writing the file failed
func Open(opts Options) (*Memory, error) {
	opts = opts.withDefaults()

	if opts.Path == "" {
		return nil, fmt.Errorf("path is required: %w", ErrInvalidInput)
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}

	var lock io.Closer

	if !opts.DisableLocking {
		held, err := fs.NewLocker(opts.FS).TryLock(opts.Path + ".lock")
		if err != nil {
			if errors.Is(err, fs.ErrWouldBlock) {
				return nil, fmt.Errorf("%w: %s", ErrBusy, opts.Path)
			}

			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}

		lock = held
	}

	file, err := opts.FS.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		closeQuietly(lock)

		return nil, fmt.Errorf("%w: opening %s: %w", ErrIO, opts.Path, err)
	}

	m, err := newMemory(file, opts)
	if err != nil {
		_ = file.Close()
		closeQuietly(lock)

		return nil, err
	}

	m.closer = file
	m.lock = lock

	return m, nil
}

// New returns a virtual memory over an arbitrary store. Only PageSize and
// PoolPages of opts are honored; the caller keeps ownership of the store's
// lifecycle and must coordinate access to it.
//
// Signature handling is the same as in [Open].
//
// Possible errors: [ErrInvalidInput], [ErrCorrupt], [ErrIO].
func New(store Store, opts Options) (*Memory, error) {
	opts = opts.withDefaults()

	if err := opts.validate(); err != nil {
		return nil, err
	}

	return newMemory(store, opts)
}

// newMemory verifies or writes the store signature and builds the pool.
func newMemory(store Store, opts Options) (*Memory, error) {
	stamped, err := checkSignature(store)
	if err != nil {
		return nil, err
	}

	m := &Memory{
		store:    store,
		pageSize: opts.PageSize,
		capacity: dataCapacity(opts.PageSize),
		pool:     opts.PoolPages,
		resident: make(map[int]*list.Element, opts.PoolPages),
		lru:      list.New(),
	}

	// A store that already held data must have its readable extent
	// restored, or the Read fast path would report every flushed offset
	// as absent.
	if !stamped {
		m.maxOffset = storedOffsetBound(store, opts.PageSize, m.capacity)
	}

	return m, nil
}

// checkSignature validates the signature of a non-empty store and stamps an
// empty one. It reports whether the store was freshly stamped.
func checkSignature(store Store) (bool, error) {
	var sig [signatureSize]byte

	n, err := store.ReadAt(sig[:], 0)

	switch {
	case n == signatureSize:
		if sig != signature {
			return false, fmt.Errorf("bad signature %q: %w", sig[:], ErrCorrupt)
		}

		return false, nil

	case err == nil || errors.Is(err, io.EOF):
		// New or truncated store: stamp it.
		if _, werr := store.WriteAt(signature[:], 0); werr != nil {
			return false, fmt.Errorf("%w: writing signature: %w", ErrIO, werr)
		}

		return true, nil

	default:
		return false, fmt.Errorf("%w: reading signature: %w", ErrIO, err)
	}
}

// storedOffsetBound derives the highest logical offset that may hold a
// flushed value from the store's current size: every page slot the store is
// long enough to contain may carry values up to its last payload byte.
//
// A store that cannot report a size disables the fast path; correctness
// then relies on the per-page bitmaps alone.
func storedOffsetBound(store Store, pageSize, capacity int) int {
	size, ok := storeSize(store)
	if !ok {
		return math.MaxInt
	}

	pages := (size - int64(signatureSize) + int64(pageSize) - 1) / int64(pageSize)
	if pages <= 0 {
		return 0
	}

	return int(pages)*capacity - 1
}

// storeSize reports the store's current length in bytes, if it can tell.
func storeSize(store Store) (int64, bool) {
	switch s := store.(type) {
	case interface{ Stat() (os.FileInfo, error) }:
		info, err := s.Stat()
		if err != nil {
			return 0, false
		}

		return info.Size(), true

	case interface{ Size() int64 }:
		return s.Size(), true
	}

	return 0, false
}

// Write stores b at the logical offset, faulting the owning page in first
// if needed.
//
// Possible errors: [ErrClosed], [ErrInvalidInput], [ErrIO].
func (m *Memory) Write(offset int, b byte) error {
	p, err := m.resolve(offset)
	if err != nil {
		return err
	}

	if offset > m.maxOffset {
		m.maxOffset = offset
	}

	p.setValue(offset%m.capacity, b)

	return nil
}

// Read returns the byte at the logical offset, or found=false when nothing
// was ever written there.
//
// Offsets beyond the store's known extent (the highest offset written
// through this instance, or the bound derived from the store size at open)
// short-circuit without touching the store, so probing far past the end
// never faults pages in.
//
// Possible errors: [ErrClosed], [ErrInvalidInput], [ErrIO].
func (m *Memory) Read(offset int) (byte, bool, error) {
	if m.closed {
		return 0, false, ErrClosed
	}

	if offset < 0 {
		return 0, false, fmt.Errorf("negative offset %d: %w", offset, ErrInvalidInput)
	}

	if offset > m.maxOffset {
		return 0, false, nil
	}

	p, err := m.resolve(offset)
	if err != nil {
		return 0, false, err
	}

	b, ok := p.getValue(offset % m.capacity)

	return b, ok, nil
}

// Remove deletes the byte at the logical offset and returns the prior
// value, if any. The freed slot reads as absent afterwards; offsets of
// other bytes are unaffected.
//
// Possible errors: [ErrClosed], [ErrInvalidInput], [ErrIO].
func (m *Memory) Remove(offset int) (byte, bool, error) {
	p, err := m.resolve(offset)
	if err != nil {
		return 0, false, err
	}

	inPage := offset % m.capacity

	prev, ok := p.getValue(inPage)
	p.removeValue(inPage)

	return prev, ok, nil
}

// Flush writes every dirty resident page back to the store. Pages stay
// resident; only their dirty flags are cleared.
//
// Possible errors: [ErrClosed], [ErrIO].
func (m *Memory) Flush() error {
	if m.closed {
		return ErrClosed
	}

	for el := m.lru.Front(); el != nil; el = el.Next() {
		if err := m.flushPage(el.Value.(*page)); err != nil {
			return err
		}
	}

	return nil
}

// Close flushes all resident pages, drops them, and releases the swap file
// and its lock. Flush-on-close is how the last window of writes becomes
// durable; skipping Close loses them.
//
// Close is idempotent; subsequent calls are no-ops. If flushing fails, the
// first failure is returned but teardown still runs to completion.
func (m *Memory) Close() error {
	if m.closed {
		return nil
	}

	m.closed = true

	var firstErr error

	for el := m.lru.Front(); el != nil; el = el.Next() {
		if err := m.flushPage(el.Value.(*page)); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	m.lru.Init()
	clear(m.resident)

	if s, ok := m.store.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: sync: %w", ErrIO, err)
		}
	}

	if m.closer != nil {
		if err := m.closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: closing swap file: %w", ErrIO, err)
		}

		m.closer = nil
	}

	closeQuietly(m.lock)
	m.lock = nil

	return firstErr
}

// PageSize returns the configured on-store page size in bytes.
func (m *Memory) PageSize() int {
	return m.pageSize
}

// DataCapacity returns the number of payload bytes per page.
func (m *Memory) DataCapacity() int {
	return m.capacity
}

// MaxOffset returns the highest logical offset that may hold a value: the
// highest offset written through this instance, or, for a reopened store,
// at least the extent implied by its size.
func (m *Memory) MaxOffset() int {
	return m.maxOffset
}

// Stats returns cumulative counters for this instance.
func (m *Memory) Stats() Stats {
	return m.stats
}

// Pages describes the resident pages in most-recently-accessed-first order.
func (m *Memory) Pages() []PageInfo {
	infos := make([]PageInfo, 0, m.lru.Len())

	for el := m.lru.Front(); el != nil; el = el.Next() {
		p := el.Value.(*page)
		infos = append(infos, PageInfo{Index: p.index, Dirty: p.dirty, LastAccess: p.lastAccess})
	}

	return infos
}

// resolve returns the resident page owning the logical offset, faulting it
// in (and evicting the least recently accessed page if the pool is full)
// when absent.
func (m *Memory) resolve(offset int) (*page, error) {
	if m.closed {
		return nil, ErrClosed
	}

	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d: %w", offset, ErrInvalidInput)
	}

	pageIndex := offset / m.capacity

	if el, ok := m.resident[pageIndex]; ok {
		m.lru.MoveToFront(el)

		return el.Value.(*page), nil
	}

	if m.lru.Len() >= m.pool {
		if err := m.evictOldest(); err != nil {
			return nil, err
		}
	}

	p, err := m.loadPage(pageIndex)
	if err != nil {
		return nil, err
	}

	m.resident[pageIndex] = m.lru.PushFront(p)

	return p, nil
}

// loadPage reads a page slot from the store. Slots at or past the end of a
// growing store read as zeros, which is exactly a fresh all-clear page.
func (m *Memory) loadPage(pageIndex int) (*page, error) {
	raw := make([]byte, m.pageSize)

	_, err := m.store.ReadAt(raw, pageOffset(m.pageSize, pageIndex))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: reading page %d: %w", ErrIO, pageIndex, err)
	}

	m.stats.PageFaults++

	return newPage(pageIndex, m.capacity, raw), nil
}

// evictOldest flushes (if dirty) and drops the least recently accessed
// resident page. On flush failure the page stays resident so no data is
// silently lost.
func (m *Memory) evictOldest() error {
	oldest := m.lru.Back()
	if oldest == nil {
		return nil
	}

	victim := oldest.Value.(*page)

	if err := m.flushPage(victim); err != nil {
		return err
	}

	m.lru.Remove(oldest)
	delete(m.resident, victim.index)
	m.stats.Evictions++

	return nil
}

// flushPage persists a dirty page: bitmap bytes first, payload bytes after,
// no padding, at the page's fixed slot offset. Clean pages are a no-op.
func (m *Memory) flushPage(p *page) error {
	if !p.dirty {
		return nil
	}

	buf := make([]byte, 0, bitmapBytes(m.capacity)+m.capacity)
	buf = append(buf, p.valid.bytes()...)
	buf = append(buf, p.data.slice()...)

	if _, err := m.store.WriteAt(buf, pageOffset(m.pageSize, p.index)); err != nil {
		return fmt.Errorf("%w: flushing page %d: %w", ErrIO, p.index, err)
	}

	p.dirty = false
	m.stats.Flushes++

	return nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
