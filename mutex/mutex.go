// Package mutex implements the reentrant-by-owner counting lock (spec §4.3).
package mutex

import (
	"sync"

	"github.com/siffiejoe/tinylthread/internal/errs"
	"github.com/siffiejoe/tinylthread/internal/interruptx"
	"github.com/siffiejoe/tinylthread/internal/refc"
	"github.com/siffiejoe/tinylthread/internal/tlog"
	"github.com/siffiejoe/tinylthread/state"
)

// shared is the mutex-shared backing object (spec §3): a native mutex, one
// condition variable signalled exactly when count reaches zero, and the
// current recursive lock depth.
type shared struct {
	header   *refc.Header
	mu       sync.Mutex
	unlocked *sync.Cond
	count    int
	owner    *Mutex
}

// Mutex is a wrapper handle onto a shared mutex backing. Multiple wrappers,
// possibly in different interpreter states, may point at the same backing;
// is_owner is per-wrapper and is never itself shared.
type Mutex struct {
	s       *shared
	isOwner bool
}

// New returns a new, unlocked mutex handle.
func New() *Mutex {
	s := &shared{header: refc.NewHeader()}
	s.unlocked = sync.NewCond(&s.mu)
	return &Mutex{s: s}
}

// TypeName implements handle.Handle.
func (*Mutex) TypeName() string { return "mutex" }

// Lock acquires the mutex on behalf of st's thread. If this wrapper is
// already the owner, the lock is taken recursively: the loop exits
// immediately and count is simply incremented. A wrapper in the same thread
// that isn't this exact wrapper is treated as any other contender.
func (m *Mutex) Lock(st *state.State) error {
	m.s.mu.Lock()
	desc := &interruptx.Desc{HeaderMu: m.s.header.Mutex(), Cond: m.s.unlocked}
	for !st.Interrupt.ShouldThrow() && m.s.count > 0 && m.s.owner != m {
		st.Interrupt.PublishBlock(desc)
		m.s.unlocked.Wait()
		st.Interrupt.ClearBlock()
	}
	if st.Interrupt.ShouldThrow() {
		m.s.mu.Unlock()
		return errs.ErrInterrupted
	}
	m.s.owner = m
	m.isOwner = true
	m.s.count++
	m.s.mu.Unlock()
	return nil
}

// TryLock attempts to acquire the mutex without blocking. It returns false
// if the mutex is held by a different wrapper.
func (m *Mutex) TryLock(st *state.State) bool {
	if st.Interrupt.ShouldThrow() {
		return false
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.count > 0 && m.s.owner != m {
		return false
	}
	m.s.owner = m
	m.isOwner = true
	m.s.count++
	return true
}

// Unlock releases one level of this wrapper's recursive lock. It returns
// ErrBadState if the mutex is already unlocked, or if it is held by a
// different wrapper, matching the original's two distinct (nil, reason)
// failure strings collapsed into one sentinel kind.
func (m *Mutex) Unlock() error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.count == 0 {
		return badState("mutex is already unlocked")
	}
	if m.s.owner != m {
		return badState("mutex is locked by another thread")
	}
	m.s.count--
	if m.s.count == 0 {
		m.s.owner = nil
		m.isOwner = false
		m.s.unlocked.Signal()
	}
	return nil
}

func badState(msg string) error {
	return &badStateError{msg: msg}
}

type badStateError struct{ msg string }

func (b *badStateError) Error() string { return "tinylthread: " + b.msg }
func (b *badStateError) Unwrap() error { return errs.ErrBadState }

// Destroy releases the wrapper's hold on the backing object's refcount. If
// this wrapper currently owns the lock, the lock is force-released first
// (matching "destruction of a wrapper with is_owner == true releases the
// lock before refcount decrement"). The caller must not use m again after
// Destroy.
func (m *Mutex) Destroy() {
	m.s.mu.Lock()
	if m.isOwner {
		m.s.count = 0
		m.s.owner = nil
		m.isOwner = false
		m.s.unlocked.Broadcast()
	}
	m.s.mu.Unlock()

	if m.s.header.Release() {
		tlog.Debug("mutex backing destroyed")
	}
}

// CopyTo builds a fresh, unlocked wrapper bound to dst pointing at the same
// backing, bumping the shared refcount. It is registered as this type's
// copy hook.
func (m *Mutex) CopyTo(*state.State) (*Mutex, error) {
	m.s.header.Retain()
	return &Mutex{s: m.s}, nil
}
