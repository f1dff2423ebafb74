// Package port implements the synchronous rendezvous channel (spec §4.4):
// an unbuffered pipe with separate reader and writer endpoints sharing one
// backing object.
package port

import (
	"sync"

	"github.com/dop251/goja"

	"github.com/siffiejoe/tinylthread/copyval"
	"github.com/siffiejoe/tinylthread/internal/errs"
	"github.com/siffiejoe/tinylthread/internal/interruptx"
	"github.com/siffiejoe/tinylthread/internal/refc"
	"github.com/siffiejoe/tinylthread/internal/tlog"
	"github.com/siffiejoe/tinylthread/state"
)

// shared is the channel-shared backing object.
type shared struct {
	header *refc.Header
	mu     sync.Mutex

	dataCopied       *sync.Cond
	waitingSenders   *sync.Cond
	waitingReceivers *sync.Cond

	currentReceiver *state.State
	pendingValue    goja.Value

	rports int
	wports int
}

// Reader is the read endpoint of a port.
type Reader struct{ s *shared }

// Writer is the write endpoint of a port.
type Writer struct{ s *shared }

// TypeName implements handle.Handle for both endpoint types.
func (*Reader) TypeName() string { return "port" }
func (*Writer) TypeName() string { return "port" }

// New returns a fresh, connected reader/writer pair (spec's pipe()).
func New() (*Reader, *Writer) {
	s := &shared{header: refc.NewHeader(), rports: 1, wports: 1}
	s.dataCopied = sync.NewCond(&s.mu)
	s.waitingSenders = sync.NewCond(&s.mu)
	s.waitingReceivers = sync.NewCond(&s.mu)
	return &Reader{s: s}, &Writer{s: s}
}

// Read performs the receive side of the rendezvous (spec §4.4).
func (r *Reader) Read(st *state.State) (goja.Value, error) {
	s := r.s
	s.mu.Lock()
	recvDesc := &interruptx.Desc{HeaderMu: s.header.Mutex(), Cond: s.waitingReceivers}

	// Step 2: wait for the "current receiver" slot to be free.
	for !st.Interrupt.ShouldThrow() && s.currentReceiver != nil && s.wports > 0 {
		st.Interrupt.PublishBlock(recvDesc)
		s.waitingReceivers.Wait()
		st.Interrupt.ClearBlock()
	}
	if st.Interrupt.ShouldThrow() {
		s.mu.Unlock()
		return nil, errs.ErrInterrupted
	}
	if s.wports == 0 {
		s.mu.Unlock()
		return nil, errs.ErrBrokenPipe
	}

	// Step 4: claim the slot and signal a sender may proceed.
	s.currentReceiver = st
	s.waitingSenders.Signal()

	// Step 5: wait for a sender to clear the slot (data arrived) or for the
	// write side to disappear.
	dataDesc := &interruptx.Desc{HeaderMu: s.header.Mutex(), Cond: s.dataCopied}
	for !st.Interrupt.ShouldThrow() && s.currentReceiver == st && s.wports > 0 {
		st.Interrupt.PublishBlock(dataDesc)
		s.dataCopied.Wait()
		st.Interrupt.ClearBlock()
	}

	if s.currentReceiver != st {
		// A sender cleared our slot after a successful copy: a failed copy
		// leaves the slot (and this receiver) untouched instead, per spec
		// §4.4 step 4 (the error propagates back to the sender only).
		v := s.pendingValue
		s.pendingValue = nil
		s.mu.Unlock()
		return v, nil
	}

	// Step 7: interrupted or broken pipe while still holding the slot.
	s.currentReceiver = nil
	s.waitingReceivers.Signal()
	s.mu.Unlock()
	if st.Interrupt.ShouldThrow() {
		return nil, errs.ErrInterrupted
	}
	return nil, errs.ErrBrokenPipe
}

// Write performs the send side of the rendezvous (spec §4.4). v is copied,
// via the value-copy engine, directly onto the receiver's interpreter state.
func (w *Writer) Write(st *state.State, v goja.Value) error {
	s := w.s
	s.mu.Lock()
	desc := &interruptx.Desc{HeaderMu: s.header.Mutex(), Cond: s.waitingSenders}

	for !st.Interrupt.ShouldThrow() && s.currentReceiver == nil && s.rports > 0 {
		st.Interrupt.PublishBlock(desc)
		s.waitingSenders.Wait()
		st.Interrupt.ClearBlock()
	}
	if st.Interrupt.ShouldThrow() {
		s.mu.Unlock()
		return errs.ErrInterrupted
	}
	if s.rports == 0 {
		s.mu.Unlock()
		return errs.ErrBrokenPipe
	}

	receiver := s.currentReceiver
	copied, err := copyval.Copy(st, receiver, 0, v)
	if err != nil {
		// Step 4: the copy failed on this (the sender's) state. The parked
		// receiver is left exactly as it was — still waiting on dataCopied
		// for a real value, a later successful write, an interrupt, or a
		// broken pipe — per spec §4.4: the error propagates back onto the
		// sender only, step 5 never runs.
		s.mu.Unlock()
		return err
	}
	s.pendingValue = copied
	s.currentReceiver = nil
	s.dataCopied.Signal()
	s.waitingReceivers.Signal()
	s.mu.Unlock()
	return nil
}

// CloseReader releases this reader wrapper. When the last reader wrapper
// dies, pending/future writers observe a broken pipe.
func (r *Reader) CloseReader() {
	s := r.s
	s.mu.Lock()
	s.rports--
	broken := s.rports == 0
	if broken {
		s.waitingSenders.Broadcast()
	}
	s.mu.Unlock()

	if s.header.Release() {
		tlog.Debug("port backing destroyed")
	}
}

// CloseWriter releases this writer wrapper. When the last writer wrapper
// dies, any blocked receiver (in either of its two waits) is released.
func (w *Writer) CloseWriter() {
	s := w.s
	s.mu.Lock()
	s.wports--
	broken := s.wports == 0
	if broken {
		s.dataCopied.Broadcast()
		s.waitingReceivers.Broadcast()
	}
	s.mu.Unlock()

	if s.header.Release() {
		tlog.Debug("port backing destroyed")
	}
}

// CopyTo builds a fresh reader wrapper bound to dst pointing at the same
// backing, bumping both the shared refcount and the reader-endpoint count.
func (r *Reader) CopyTo(*state.State) (*Reader, error) {
	r.s.header.Retain()
	r.s.mu.Lock()
	r.s.rports++
	r.s.mu.Unlock()
	return &Reader{s: r.s}, nil
}

// CopyTo builds a fresh writer wrapper bound to dst pointing at the same
// backing, bumping both the shared refcount and the writer-endpoint count.
func (w *Writer) CopyTo(*state.State) (*Writer, error) {
	w.s.header.Retain()
	w.s.mu.Lock()
	w.s.wports++
	w.s.mu.Unlock()
	return &Writer{s: w.s}, nil
}
