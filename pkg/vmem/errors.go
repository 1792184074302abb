package vmem

import "errors"

// Sentinel errors returned by vmem operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, vmem.ErrCorrupt) {
//	    os.Remove(path)
//	    // recreate the swap file
//	}
var (
	// ErrCorrupt indicates the swap file is not a vmem file or is damaged.
	//
	// Returned by [Open] when the file exists but does not start with the
	// "VM" signature.
	//
	// Recovery: delete and recreate the swap file.
	ErrCorrupt = errors.New("vmem: corrupt")

	// ErrIO indicates a swap store read or write failed.
	//
	// The underlying error is wrapped and can be inspected with
	// [errors.As]. A failed flush may leave the store missing the most
	// recent writes; the in-memory state is still coherent.
	//
	// Recovery: none. A single I/O failure is terminal for the store.
	ErrIO = errors.New("vmem: store i/o failed")

	// ErrBusy indicates another process holds the swap file lock.
	//
	// Recovery: retry after a short delay, or open with
	// [Options.DisableLocking] if access is coordinated externally.
	ErrBusy = errors.New("vmem: busy")

	// ErrClosed indicates the [Memory] has already been closed.
	//
	// This is a programming error.
	ErrClosed = errors.New("vmem: closed")

	// ErrInvalidInput indicates invalid arguments were provided.
	//
	// Common causes: PageSize <= 1, PoolPages <= 2, a negative offset.
	//
	// This is a programming error.
	ErrInvalidInput = errors.New("vmem: invalid input")
)
