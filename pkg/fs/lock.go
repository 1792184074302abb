package fs

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrWouldBlock is returned when a lock cannot be acquired without waiting.
	//
	// It is returned by [Locker.TryLock] when the lock is held by another
	// process, and by [Locker.LockWithTimeout] when the acquisition timeout
	// expires.
	ErrWouldBlock = errors.New("lock would block")

	// ErrInvalidTimeout is returned when a timeout is <= 0.
	ErrInvalidTimeout = errors.New("invalid lock timeout")
)

// Locker provides file-based locking using flock(2).
//
// flock is advisory and applies to an inode (an open file), not a pathname.
// All cooperating processes must take the lock for it to have effect.
//
// To lock a logical resource, prefer a dedicated lock file that is stable on
// disk (for example "app.swap.lock"). Do not replace or unlink that lock file
// while locks may be held.
//
// This implementation is Unix-only.
type Locker struct {
	fs    FS
	flock func(fd int, how int) error
}

// NewLocker creates a Locker that uses the given filesystem for file
// operations. Custom [FS] implementations must provide a real OS file
// descriptor via [File.Fd].
func NewLocker(fs FS) *Locker {
	return &Locker{
		fs:    fs,
		flock: unix.Flock,
	}
}

// Lock represents a held file lock. Call [Lock.Close] to release it.
type Lock struct {
	mu    sync.Mutex
	file  File
	flock func(fd int, how int) error
}

// Close releases the lock and closes the underlying file descriptor.
//
// Close is idempotent - calling it multiple times is safe and subsequent
// calls return nil.
//
// On Unix, closing a file descriptor typically releases any flock held by
// that descriptor. Close attempts an explicit unlock first; if both the
// unlock and the close fail, the returned error wraps both (see
// [errors.Join]).
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	fd := int(lk.file.Fd())

	unlockErr := flockRetryEINTR(lk.flock, fd, unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking lock: %w", unlockErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return errors.Join(unlockErr, closeErr)
}

// TryLock acquires an exclusive lock on the file at path without blocking.
//
// The lock file is created if it does not exist. Returns [ErrWouldBlock]
// immediately if the lock is held elsewhere.
func (l *Locker) TryLock(path string) (*Lock, error) {
	return l.acquire(path, unix.LOCK_EX|unix.LOCK_NB)
}

// LockWithTimeout acquires an exclusive lock on the file at path, retrying
// until the timeout expires.
//
// Returns an error satisfying [errors.Is] with [ErrWouldBlock] if the
// timeout expires before the lock becomes available.
func (l *Locker) LockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimeout, timeout)
	}

	const retryInterval = 10 * time.Millisecond

	deadline := time.Now().Add(timeout)

	for {
		lock, err := l.acquire(path, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return lock, nil
		}

		if !errors.Is(err, ErrWouldBlock) {
			return nil, err
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: timed out after %v: %s", ErrWouldBlock, timeout, path)
		}

		time.Sleep(retryInterval)
	}
}

// acquire opens (creating if needed) the lock file and flocks it.
func (l *Locker) acquire(path string, how int) (*Lock, error) {
	file, err := l.fs.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	flockErr := flockRetryEINTR(l.flock, int(file.Fd()), how)
	if flockErr != nil {
		_ = file.Close()

		if errors.Is(flockErr, unix.EWOULDBLOCK) || errors.Is(flockErr, unix.EAGAIN) {
			return nil, fmt.Errorf("%w: %s", ErrWouldBlock, path)
		}

		return nil, fmt.Errorf("flock: %w", flockErr)
	}

	return &Lock{file: file, flock: l.flock}, nil
}

// flockRetryEINTR calls flock, retrying while it is interrupted by a signal.
func flockRetryEINTR(flock func(fd int, how int) error, fd, how int) error {
	for {
		err := flock(fd, how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
