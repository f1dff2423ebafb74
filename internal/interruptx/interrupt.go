// Package interruptx implements the interrupt protocol (spec §4.2): a
// per-thread interrupt flag, the block descriptor that records where a
// thread currently sleeps, and the wakeup dance used to unblock it from
// outside.
package interruptx

import (
	"sync"
)

// Desc is a block descriptor: the record of where a thread is currently
// waiting, published before each condition-variable wait and cleared after
// it returns. HeaderMu is the backing object's refcount header mutex; Cond
// is the condition variable the thread is blocked on (Cond.L is the mutex
// synchronizing that wait).
type Desc struct {
	HeaderMu *sync.Mutex
	Cond     *sync.Cond
}

// Control is the interrupt-related state carried by every thread: the
// current block descriptor (nil unless inside a blocking primitive), the
// interrupt flag, and the one-shot ignore-interrupt mask.
type Control struct {
	mu              sync.Mutex
	block           *Desc
	interrupted     bool
	ignoreInterrupt bool
}

// New returns a ready-to-use Control.
func New() *Control {
	return &Control{}
}

// PublishBlock records where the calling thread is about to wait. Must be
// called with the backing object's own mutex held (i.e. immediately before
// the Cond.Wait call that uses the same mutex as desc.Cond.L).
func (c *Control) PublishBlock(desc *Desc) {
	c.mu.Lock()
	c.block = desc
	c.mu.Unlock()
}

// ClearBlock clears the block descriptor after a wait returns.
func (c *Control) ClearBlock() {
	c.mu.Lock()
	c.block = nil
	c.mu.Unlock()
}

// ShouldThrow is the single interrupt-check decision point. It reports
// whether the calling blocking primitive should abandon its wait and
// propagate an interrupted error (errs.ErrInterrupted, at the call site).
// If the one-shot ignore-interrupt mask is set, it is consumed and the
// pending interrupt (if any) is cleared instead of being honored.
func (c *Control) ShouldThrow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ignoreInterrupt {
		c.ignoreInterrupt = false
		c.interrupted = false
		return false
	}
	return c.interrupted
}

// NoInterrupt arms the one-shot ignore-interrupt mask for the calling
// thread's next interrupt check.
func (c *Control) NoInterrupt() {
	c.mu.Lock()
	c.ignoreInterrupt = true
	c.mu.Unlock()
}

// IsInterrupted reports the raw interrupt flag without consuming the mask,
// for diagnostics and tests.
func (c *Control) IsInterrupted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interrupted
}

// Interrupt delivers an interrupt to the thread owning this Control. It sets
// the interrupt flag and, if the thread is currently blocked, wakes it via
// its published block descriptor. This is the one place in the whole module
// permitted to hold this Control's mutex and then reach for another shared
// object's mutex (the descriptor's HeaderMu and its Cond.L); every other
// caller must release before taking a second lock.
func (c *Control) Interrupt() {
	c.mu.Lock()
	c.interrupted = true
	desc := c.block
	if desc == nil {
		c.mu.Unlock()
		return
	}

	// (a) Lock the descriptor's header mutex to pin the backing object
	// against concurrent destruction.
	desc.HeaderMu.Lock()
	// (b) Release the target's own state mutex to avoid deadlocking against
	// the target thread, which needs it to re-check the interrupt flag.
	c.mu.Unlock()
	// (c) Lock the descriptor's condition-variable mutex; this synchronizes
	// with the target's own Cond.Wait.
	desc.Cond.L.Lock()
	// (d) Broadcast: the target re-checks the interrupt flag on wakeup.
	desc.Cond.Broadcast()
	desc.Cond.L.Unlock()
	desc.HeaderMu.Unlock()
}
