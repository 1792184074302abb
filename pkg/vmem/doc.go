// Package vmem provides a byte-addressable virtual memory of unbounded
// logical size, backed by a bounded in-memory page pool and a persistent
// swap store.
//
// Callers write, read, or remove single bytes at arbitrary logical offsets
// without knowing how data is paged, cached, or flushed. The pool keeps a
// fixed number of pages resident; on a miss the owning page is faulted in
// from the store, evicting the least recently accessed resident page first
// when the pool is full. Dirty pages are written back on eviction and on
// [Memory.Close].
//
// # Basic Usage
//
//	mem, err := vmem.Open(vmem.Options{
//	    Path:      "/tmp/app.swap",
//	    PageSize:  4096,
//	    PoolPages: 8,
//	})
//	if err != nil {
//	    // handle [ErrCorrupt]/[ErrBusy] by removing or waiting
//	}
//	defer mem.Close()
//
//	// Write
//	err = mem.Write(1<<20, 0x2a)
//
//	// Read
//	b, ok, err := mem.Read(1 << 20)
//
//	// Remove
//	prev, ok, err := mem.Remove(1 << 20)
//
// # Concurrency
//
// A [Memory] is single-owner and NOT safe for concurrent use. Any operation
// may evict a page as a side effect, so callers must never retain references
// into page contents across calls. Wrap access in your own mutex if multiple
// goroutines share one instance.
//
// # Error Handling
//
// Absence of a value is not an error: Read and Remove return found=false.
// Store failures surface as wrapped [ErrIO]; a damaged swap file surfaces
// as [ErrCorrupt] at open time. Both are terminal for the affected file -
// there is no retry policy.
package vmem
