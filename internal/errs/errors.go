// Package errs holds the sentinel error kinds shared by every tinylthread
// subpackage (spec §7). It is internal so that the concurrency packages
// (mutex, port, thread, copyval) can depend on it without creating an import
// cycle back through the root package, which re-exports these values under
// the public tinylthread.Err* names.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrMemory mirrors MemoryError: backing allocation, child-state
	// construction, or stack-extension failure. Go's allocator panics
	// instead of failing softly, so no call site in this module returns it;
	// it is kept for parity with the error kinds of the original.
	ErrMemory = errors.New("tinylthread: memory error")

	// ErrLockFailed mirrors LockFailed.
	ErrLockFailed = errors.New("tinylthread: lock failed")

	// ErrInvalidHandle mirrors InvalidHandle: use of a wrapper whose backing
	// has already been released.
	ErrInvalidHandle = errors.New("tinylthread: invalid handle")

	// ErrWrongRole mirrors WrongRole: Detach/Join called on a non-parent
	// thread wrapper.
	ErrWrongRole = errors.New("tinylthread: wrong role")

	// ErrBadState mirrors BadState: Detach of an already-detached or
	// already-joined thread, Join of an already-finalized thread, or Unlock
	// of a mutex not locked (or locked by another wrapper).
	ErrBadState = errors.New("tinylthread: bad state")

	// ErrBrokenPipe mirrors BrokenPipe: Read/Write with no live counterpart
	// endpoints.
	ErrBrokenPipe = errors.New("tinylthread: broken pipe")

	// ErrInterrupted mirrors Interrupted: the interrupt sentinel surfaced
	// from a blocking call.
	ErrInterrupted = errors.New("tinylthread: interrupted")

	// ErrNonJoinedThread mirrors NonJoinedThread: a parent thread wrapper
	// was destroyed without Join or Detach.
	ErrNonJoinedThread = errors.New("tinylthread: thread was neither joined nor detached")
)

// UnsupportedTypeError mirrors UnsupportedType{index, type_name}: the
// value-copy engine encountered a value it cannot copy between interpreter
// states.
type UnsupportedTypeError struct {
	Index    int
	TypeName string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("tinylthread: unsupported type at argument %d: %s", e.Index, e.TypeName)
}
