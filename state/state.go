// Package state wraps the per-thread embedded interpreter. Each spawned
// thread owns exactly one State; its *goja.Runtime must only ever be driven
// by the goroutine that owns it, except for the brief window during a
// channel rendezvous (port.Read/port.Write) where the sending side writes
// directly into the receiving side's Runtime while the receiver is parked,
// synchronized by the channel's own mutex (spec §4.4).
package state

import (
	"sync"

	"github.com/dop251/goja"

	"github.com/siffiejoe/tinylthread/internal/interruptx"
)

// Reserved registry keys (spec §6). c.api.v1 and thunk, present in the
// original C API, have no Go analogue and are not carried here.
const (
	RegistryThis           = "this"
	RegistryInterruptError = "interrupt.error"
)

// InterruptSentinel is the distinguished interrupt value of a State. Only its
// identity matters, never its contents; every State owns exactly one,
// installed at construction time. Blocking primitives do not throw it: an
// interrupted blocking call returns errs.ErrInterrupted instead.
type InterruptSentinel struct {
	// owner names the State this sentinel belongs to, for diagnostics only;
	// it plays no part in identity, which is pointer equality.
	owner *State
}

// State is a single thread's embedded interpreter plus the bookkeeping the
// concurrency runtime needs around it: the interrupt control block and a
// small process-namespaced registry standing in for the original's
// per-interpreter Lua registry.
type State struct {
	VM        *goja.Runtime
	Interrupt *interruptx.Control

	sentinel *InterruptSentinel

	mu       sync.Mutex
	registry map[string]any
}

// New constructs a fresh interpreter state with its own Goja runtime,
// interrupt control block, and interrupt sentinel already installed in the
// registry under RegistryInterruptError.
func New() *State {
	st := &State{
		VM:        goja.New(),
		Interrupt: interruptx.New(),
		registry:  make(map[string]any, 4),
	}
	st.sentinel = &InterruptSentinel{owner: st}
	st.registry[RegistryInterruptError] = st.sentinel
	return st
}

// Sentinel returns this state's own interrupt sentinel.
func (s *State) Sentinel() *InterruptSentinel {
	return s.sentinel
}

// SetRegistry installs a value under a registry key, overwriting any
// previous value.
func (s *State) SetRegistry(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[key] = v
}

// Registry looks up a registry key.
func (s *State) Registry(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.registry[key]
	return v, ok
}
