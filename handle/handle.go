// Package handle implements the copy-hook registry for shareable handle
// types (thread, mutex, port reader/writer). It replaces the original's
// metatable-metadata dispatch (spec §4.1, §9) with the type registry the
// spec's own design notes anticipate for a host with a reflective FFI layer:
// Go's reflect package is exactly that layer, so the "verify the metatable
// round-trips to itself, then look the registry name up in the destination"
// dance collapses to a single reflect.Type-keyed map lookup, with Go's type
// system providing the identity guarantee the original had to check by hand.
package handle

import (
	"reflect"
	"sync"

	"github.com/siffiejoe/tinylthread/state"
)

// Handle is implemented by every shareable handle type. TypeName returns one
// of "thread", "mutex", "port" — the strings tinylthread.TypeOf reports.
type Handle interface {
	TypeName() string
}

// CopyHook builds a fresh wrapper bound to dst for the same backing object
// that h wraps, bumping the shared refcount. It returns the new wrapper, or
// an error if the copy fails. A handle type with no registered hook is
// reported by Lookup returning false, not by the hook itself.
type CopyHook func(dst *state.State, h Handle) (Handle, error)

var (
	mu    sync.RWMutex
	hooks = make(map[reflect.Type]CopyHook)
)

// Register installs the copy hook for handle type T. Call once, typically
// from an init() in the package defining T. T is normally a pointer type
// (e.g. *thread.Thread).
func Register[T Handle](hook func(dst *state.State, h T) (Handle, error)) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.Lock()
	defer mu.Unlock()
	hooks[t] = func(dst *state.State, h Handle) (Handle, error) {
		// Safe: Lookup only ever selects this hook for the exact type T it
		// was registered under.
		return hook(dst, h.(T))
	}
}

// Lookup returns the registered copy hook for h's concrete type, if any.
func Lookup(h Handle) (CopyHook, bool) {
	mu.RLock()
	defer mu.RUnlock()
	hook, ok := hooks[reflect.TypeOf(h)]
	return hook, ok
}
