// Package refc implements the shared-ownership refcount header carried by
// every handle-backed object (thread, mutex, port).
package refc

import (
	"errors"
	"sync"
)

// ErrLockFailed mirrors the LockFailed error kind: the header's own mutex
// could not be acquired. In practice a sync.Mutex in Go never fails to lock,
// so no function in this package returns it; it is kept for parity with hosts
// where the native primitive can report failure.
var ErrLockFailed = errors.New("tinylthread: refcount header lock failed")

// Header is the shared-ownership counter embedded in every backing object.
// The count equals the number of live wrapper handles plus, transiently, the
// number of concurrent copy operations in progress. It transitions
// monotonically to zero; at zero the backing object must be destroyed by the
// caller of Release.
type Header struct {
	mu    sync.Mutex
	count int64
}

// NewHeader returns a Header with an initial count of 1, representing the
// first live wrapper created alongside the backing object.
func NewHeader() *Header {
	return &Header{count: 1}
}

// Retain increments the live count. Called whenever a new wrapper is
// published for an existing backing: at copy time, or when duplicating a
// wrapper within one state.
func (h *Header) Retain() {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
}

// Release decrements the live count and reports whether it reached zero,
// in which case the caller must destroy the backing object. Release never
// lets the count go negative; a second Release past zero is a caller bug and
// panics, mirroring the invariant that the count is monotonic to zero.
func (h *Header) Release() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count <= 0 {
		panic("tinylthread: refcount released past zero")
	}
	h.count--
	return h.count == 0
}

// Count returns the current live count, for diagnostics and tests only.
func (h *Header) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Mutex exposes the header's own native mutex, used by the interrupt
// protocol (§4.2) to pin a backing object against destruction while
// delivering a wakeup. Apart from that interrupt delivery, which takes the
// blocked-on condition variable's mutex while holding it, code holding it
// acquires no other mutex.
func (h *Header) Mutex() *sync.Mutex {
	return &h.mu
}
