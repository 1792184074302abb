package vmem

import (
	"fmt"

	"github.com/calvinalkan/vmem/pkg/fs"
)

// Default configuration values used by [Open] and [New] when the
// corresponding option is zero.
const (
	// DefaultPageSize is the default on-store page size in bytes.
	DefaultPageSize = 4096

	// DefaultPoolPages is the default maximum number of resident pages.
	DefaultPoolPages = 8
)

// Options configures opening or creating a virtual memory over a swap file.
type Options struct {
	// Path is the filesystem path to the swap file.
	//
	// Required by [Open], ignored by [New]. A lock file is also created at
	// Path+".lock" unless DisableLocking is set.
	Path string

	// PageSize is the on-store size of one page slot in bytes, covering
	// both the validity bitmap and the data payload.
	//
	// Must be > 1 (a page must hold at least one payload byte plus its
	// bitmap bit). Defaults to [DefaultPageSize]. Fixed for the lifetime
	// of a swap file: reopening with a different PageSize misinterprets
	// the stored pages.
	PageSize int

	// PoolPages is the maximum number of pages held resident in memory.
	//
	// Must be > 2 so that faulting one page in while another is mid-
	// eviction always leaves a resident page to serve the caller.
	// Defaults to [DefaultPoolPages].
	PoolPages int

	// DisableLocking disables the interprocess swap-file lock.
	//
	// When true, no lock file is used. The caller MUST provide equivalent
	// external coordination; two pools over one swap file corrupt it.
	DisableLocking bool

	// FS is the filesystem used to open the swap file and its lock.
	//
	// Defaults to [fs.NewReal]. Tests inject [fs.Chaos] here to exercise
	// store failure paths.
	FS fs.FS
}

// withDefaults fills in zero-valued options.
func (o Options) withDefaults() Options {
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}

	if o.PoolPages == 0 {
		o.PoolPages = DefaultPoolPages
	}

	if o.FS == nil {
		o.FS = fs.NewReal()
	}

	return o
}

// validate rejects malformed construction arguments.
func (o Options) validate() error {
	if o.PageSize <= 1 {
		return fmt.Errorf("page size %d must be > 1: %w", o.PageSize, ErrInvalidInput)
	}

	if o.PoolPages <= 2 {
		return fmt.Errorf("pool size %d must be > 2: %w", o.PoolPages, ErrInvalidInput)
	}

	return nil
}
