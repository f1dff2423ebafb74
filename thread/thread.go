// Package thread implements thread lifecycle (spec §4.5): spawn, detach,
// join, and interrupt delivery. A goroutine stands in for the original's OS
// thread; Go's preemptible scheduler satisfies the "preemptively scheduled"
// requirement without a native thread binding (see SPEC_FULL.md §0).
package thread

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/dop251/goja"

	"github.com/siffiejoe/tinylthread/copyval"
	"github.com/siffiejoe/tinylthread/internal/errs"
	"github.com/siffiejoe/tinylthread/internal/interruptx"
	"github.com/siffiejoe/tinylthread/internal/refc"
	"github.com/siffiejoe/tinylthread/internal/tlog"
	"github.com/siffiejoe/tinylthread/state"
)

// shared is the thread-shared backing object.
type shared struct {
	header *refc.Header

	stateMu  sync.Mutex
	child    *state.State // owned by the goroutine until Join/Detach transfers or relinquishes it
	detached bool
	joined   bool
	joining  bool // a Join is currently in flight (blocked or about to block)

	done       chan struct{} // closed when the goroutine's thunk returns
	completion goja.Value    // the script's completion value, valid after done is closed
	runErr     error         // non-nil if the script errored or panicked
}

// Thread is a wrapper handle onto a thread-shared backing. Only the parent
// wrapper, the one returned directly by Spawn, may Detach, Join, or trigger
// the "non-joined thread" leak diagnostic on finalization.
type Thread struct {
	s        *shared
	isParent bool
}

// TypeName implements handle.Handle.
func (*Thread) TypeName() string { return "thread" }

// Spawn validates and compiles code as the child's entry program, copies
// args into a freshly constructed child interpreter state via the
// value-copy engine, and starts the goroutine that will run it. Registering
// tinylthread's own primitives as globals inside the child so that scripts
// can themselves call thread()/mutex()/pipe() is the module-loader's job and
// explicitly out of scope (spec §1); Spawn only arranges for the child to
// run arbitrary script code with its copied arguments available as the
// global `args` array.
func Spawn(caller *state.State, code string, args ...goja.Value) (*Thread, error) {
	prog, err := goja.Compile("thread-entry", code, false)
	if err != nil {
		return nil, fmt.Errorf("tinylthread: compiling thread entry code: %w", err)
	}

	child := state.New()
	copied := make([]goja.Value, len(args))
	for i, a := range args {
		cv, err := copyval.Copy(caller, child, i+1, a)
		if err != nil {
			return nil, err
		}
		copied[i] = cv
	}

	s := &shared{
		header: refc.NewHeader(),
		child:  child,
		done:   make(chan struct{}),
	}
	t := &Thread{s: s, isParent: true}
	child.SetRegistry(state.RegistryThis, t)

	runtime.SetFinalizer(t, finalizeParent)
	go s.run(child, prog, copied)

	return t, nil
}

// run is the thread thunk (spec §4.5): it invokes the child's entry
// program with its already-copied arguments under a protected (recover'd)
// frame, then signals completion.
func (s *shared) run(child *state.State, prog *goja.Program, args []goja.Value) {
	child.VM.Set("args", toAnySlice(args))

	completion, err := runProtected(child, prog)

	s.stateMu.Lock()
	s.completion = completion
	s.runErr = err
	detached := s.detached
	s.stateMu.Unlock()

	close(s.done)

	if detached {
		// Nobody outside will ever Join this state to release it; run two
		// full GC cycles so finalizers owned by the child's objects have a
		// chance to run before this goroutine, and the child state's last
		// reference, disappear (spec §9, "detached thread cleanup").
		runtime.GC()
		runtime.GC()
	}
}

// waitInterruptible blocks until done is closed or ctrl is interrupted,
// following the same publish-block/wait discipline as every other blocking
// primitive (spec §4.2), with the goroutine's own completion standing in for
// the condition the caller is waiting on.
func waitInterruptible(ctrl *interruptx.Control, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	default:
	}

	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	header := refc.NewHeader()
	desc := &interruptx.Desc{HeaderMu: header.Mutex(), Cond: cond}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-done:
			mu.Lock()
			cond.Broadcast()
			mu.Unlock()
		case <-stop:
		}
	}()

	mu.Lock()
	defer mu.Unlock()
	for !ctrl.ShouldThrow() {
		select {
		case <-done:
			return nil
		default:
		}
		ctrl.PublishBlock(desc)
		cond.Wait()
		ctrl.ClearBlock()
	}
	return errs.ErrInterrupted
}

func runProtected(child *state.State, prog *goja.Program) (completion goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tinylthread: thread panicked: %v", r)
		}
	}()
	return child.VM.RunProgram(prog)
}

func toAnySlice(vals []goja.Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// Interrupt delivers an interrupt to this thread (spec §4.2), unblocking
// whatever blocking primitive it is currently parked in exactly once.
func (t *Thread) Interrupt() {
	t.s.stateMu.Lock()
	child := t.s.child
	t.s.stateMu.Unlock()
	if child != nil {
		child.Interrupt.Interrupt()
	}
}

// Detach relinquishes ownership of the child interpreter state to its own
// goroutine; after Detach, Thread no longer raises on finalization even if
// never Joined.
func (t *Thread) Detach() error {
	if !t.isParent {
		return errs.ErrWrongRole
	}
	t.s.stateMu.Lock()
	defer t.s.stateMu.Unlock()
	if t.s.detached || t.s.joined || t.s.joining {
		return errs.ErrBadState
	}
	t.s.detached = true
	return nil
}

// Join blocks until the thread's goroutine completes, then takes ownership
// of the child interpreter state, copies its completion value back onto
// caller's stack via the value-copy engine, and returns. The returned
// results slice has length 0 (undefined or null completion, or a script
// error) or 1: a script has a single completion value, unlike the original's
// multi-return Lua function. A Join whose caller is the thread's own child
// state is rejected with ErrBadState.
func (t *Thread) Join(caller *state.State) (ok bool, results []goja.Value, err error) {
	if !t.isParent {
		return false, nil, errs.ErrWrongRole
	}

	t.s.stateMu.Lock()
	if t.s.detached || t.s.joined || t.s.joining || caller == t.s.child {
		t.s.stateMu.Unlock()
		return false, nil, errs.ErrBadState
	}
	t.s.joining = true
	t.s.stateMu.Unlock()

	if err := waitInterruptible(caller.Interrupt, t.s.done); err != nil {
		// Interrupted before the thread finished: nothing was consumed, so a
		// later Join or Detach is still legal.
		t.s.stateMu.Lock()
		t.s.joining = false
		t.s.stateMu.Unlock()
		return false, nil, err
	}

	t.s.stateMu.Lock()
	t.s.joining = false
	t.s.joined = true
	child := t.s.child
	runErr := t.s.runErr
	completion := t.s.completion
	t.s.stateMu.Unlock()

	if completion != nil && !goja.IsUndefined(completion) && !goja.IsNull(completion) {
		v, copyErr := copyval.Copy(child, caller, 0, completion)
		if copyErr != nil {
			t.s.stateMu.Lock()
			t.s.child = nil
			t.s.stateMu.Unlock()
			return false, nil, copyErr
		}
		results = []goja.Value{v}
	}

	t.s.stateMu.Lock()
	t.s.child = nil
	t.s.stateMu.Unlock()

	return runErr == nil, results, nil
}

// finalizeParent implements "parent-wrapper destruction": if the shared
// interpreter handle is still non-nil and the thread was never detached,
// this is a resource leak (spec's NonJoinedThread). Go has no way to make a
// finalizer return an error to the code that dropped the last reference, so
// this logs at Warn instead; CheckLeaked exposes the same decision
// synchronously for tests and for callers willing to check explicitly
// before letting a Thread go out of scope.
func finalizeParent(t *Thread) {
	if err := t.CheckLeaked(); err != nil {
		tlog.Warn("non-joined thread finalized", "error", err)
	}
}

// CheckLeaked reports ErrNonJoinedThread if this parent wrapper would leak
// its thread were it dropped right now (never joined, never detached).
func (t *Thread) CheckLeaked() error {
	if !t.isParent {
		return nil
	}
	t.s.stateMu.Lock()
	defer t.s.stateMu.Unlock()
	if t.s.child != nil && !t.s.detached {
		return errs.ErrNonJoinedThread
	}
	return nil
}

// CopyTo builds a fresh, non-parent wrapper bound to dst pointing at the
// same backing, bumping the shared refcount. Only the original parent
// wrapper may Detach/Join; copies are plain observers/interrupters.
func (t *Thread) CopyTo(*state.State) (*Thread, error) {
	t.s.header.Retain()
	return &Thread{s: t.s, isParent: false}, nil
}
