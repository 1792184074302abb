package fs

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrInjected is the cause of every failure produced by [Chaos].
//
// Callers assert on it with [errors.Is] to distinguish injected faults from
// real filesystem errors in tests.
var ErrInjected = errors.New("injected fault")

// ChaosOp identifies an interceptable filesystem operation.
type ChaosOp string

// Operations that [Chaos] can fail.
const (
	ChaosOpen    ChaosOp = "open"
	ChaosReadAt  ChaosOp = "readat"
	ChaosWriteAt ChaosOp = "writeat"
	ChaosSync    ChaosOp = "sync"
)

// Chaos implements [FS] by delegating to an inner filesystem and failing
// selected operations deterministically.
//
// Faults are armed with [Chaos.FailAt]: the n-th call (1-based, counted
// across all files opened through this Chaos) of the given operation returns
// an error wrapping [ErrInjected]. Determinism keeps failing tests
// reproducible without a seed corpus.
//
// Chaos is safe for concurrent use.
type Chaos struct {
	inner FS

	mu    sync.Mutex
	calls map[ChaosOp]int // completed call counts
	armed map[ChaosOp]int // call number that must fail, 0 = disarmed
}

// NewChaos returns a Chaos wrapping inner with no faults armed.
func NewChaos(inner FS) *Chaos {
	return &Chaos{
		inner: inner,
		calls: make(map[ChaosOp]int),
		armed: make(map[ChaosOp]int),
	}
}

// FailAt arms op to fail on its n-th call (1-based). A previous arming of
// the same op is replaced; n <= 0 disarms.
func (c *Chaos) FailAt(op ChaosOp, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.armed[op] = n
}

// step counts a call of op and reports whether it must fail.
func (c *Chaos) step(op ChaosOp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls[op]++
	if n := c.armed[op]; n > 0 && c.calls[op] == n {
		return fmt.Errorf("%s call %d: %w", op, n, ErrInjected)
	}

	return nil
}

// Open opens a file for reading through the inner filesystem.
func (c *Chaos) Open(path string) (File, error) {
	if err := c.step(ChaosOpen); err != nil {
		return nil, err
	}

	f, err := c.inner.Open(path)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, chaos: c}, nil
}

// Create creates or truncates a file through the inner filesystem.
func (c *Chaos) Create(path string) (File, error) {
	if err := c.step(ChaosOpen); err != nil {
		return nil, err
	}

	f, err := c.inner.Create(path)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, chaos: c}, nil
}

// OpenFile opens a file with flags and permissions through the inner
// filesystem.
func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if err := c.step(ChaosOpen); err != nil {
		return nil, err
	}

	f, err := c.inner.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, chaos: c}, nil
}

// ReadFile delegates to the inner filesystem.
func (c *Chaos) ReadFile(path string) ([]byte, error) {
	return c.inner.ReadFile(path)
}

// chaosFile intercepts the per-file operations that Chaos can fail.
type chaosFile struct {
	File
	chaos *Chaos
}

func (f *chaosFile) ReadAt(p []byte, off int64) (int, error) {
	if err := f.chaos.step(ChaosReadAt); err != nil {
		return 0, err
	}

	return f.File.ReadAt(p, off)
}

func (f *chaosFile) WriteAt(p []byte, off int64) (int, error) {
	if err := f.chaos.step(ChaosWriteAt); err != nil {
		return 0, err
	}

	return f.File.WriteAt(p, off)
}

func (f *chaosFile) Sync() error {
	if err := f.chaos.step(ChaosSync); err != nil {
		return err
	}

	return f.File.Sync()
}

// Compile-time interface checks.
var (
	_ FS   = (*Chaos)(nil)
	_ File = (*chaosFile)(nil)
)
