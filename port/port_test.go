package port

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/siffiejoe/tinylthread/internal/errs"
	"github.com/siffiejoe/tinylthread/state"
)

func TestPingPong(t *testing.T) {
	r, w := New()
	readerSt := state.New()
	writerSt := state.New()

	done := make(chan error, 1)
	go func() {
		done <- w.Write(writerSt, writerSt.VM.ToValue("hello"))
	}()

	v, err := r.Read(readerSt)
	require.NoError(t, err)
	require.Equal(t, "hello", v.Export())
	require.NoError(t, <-done)

	r.CloseReader()
	w.CloseWriter()
}

func TestBrokenPipeOnRead(t *testing.T) {
	r, w := New()
	w.CloseWriter() // the only writer goes away before any read

	readerSt := state.New()
	_, err := r.Read(readerSt)
	require.ErrorIs(t, err, errs.ErrBrokenPipe)

	r.CloseReader()
}

func TestBrokenPipeOnWrite(t *testing.T) {
	r, w := New()
	r.CloseReader() // the only reader goes away before any write

	writerSt := state.New()
	err := w.Write(writerSt, writerSt.VM.ToValue(1))
	require.ErrorIs(t, err, errs.ErrBrokenPipe)

	w.CloseWriter()
}

func TestRendezvousOrdering(t *testing.T) {
	r, w := New()
	readerSt := state.New()

	w2, err := w.CopyTo(state.New())
	require.NoError(t, err)

	seen := make(chan int64, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	writeDone := make(chan struct{}, 2)
	go func() {
		defer wg.Done()
		st := state.New()
		require.NoError(t, w.Write(st, st.VM.ToValue(int64(1))))
		writeDone <- struct{}{}
	}()
	go func() {
		defer wg.Done()
		st := state.New()
		require.NoError(t, w2.Write(st, st.VM.ToValue(int64(2))))
		writeDone <- struct{}{}
	}()

	for i := 0; i < 2; i++ {
		v, err := r.Read(readerSt)
		require.NoError(t, err)
		seen <- v.ToInteger()
	}
	wg.Wait()
	close(seen)

	got := map[int64]bool{}
	for v := range seen {
		got[v] = true
	}
	require.Equal(t, map[int64]bool{1: true, 2: true}, got)

	r.CloseReader()
	w.CloseWriter()
	w2.CloseWriter()
}

func TestWriteCopyFailureLeavesReceiverParked(t *testing.T) {
	r, w := New()
	readerSt := state.New()
	writerSt := state.New()

	fn, err := writerSt.VM.RunString(`(function(){})`)
	require.NoError(t, err)

	readDone := make(chan struct{})
	var readVal string
	var readErr error
	go func() {
		v, err := r.Read(readerSt)
		if err == nil {
			readVal = v.Export().(string)
		}
		readErr = err
		close(readDone)
	}()

	// Give the reader a chance to park before the writer attempts the
	// failing copy, so the failure is observed while a receiver is waiting.
	time.Sleep(20 * time.Millisecond)

	writeErr := w.Write(writerSt, fn)
	var unsupported *errs.UnsupportedTypeError
	require.ErrorAs(t, writeErr, &unsupported)

	// The copy error must be reported to the sender, not the parked
	// receiver: the receiver keeps waiting and still observes a later,
	// successful write.
	select {
	case <-readDone:
		t.Fatal("Read returned before any value was successfully sent")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, w.Write(writerSt, writerSt.VM.ToValue("hello")))

	select {
	case <-readDone:
		require.NoError(t, readErr)
		require.Equal(t, "hello", readVal)
	case <-time.After(2 * time.Second):
		t.Fatal("Read never completed after the successful write")
	}

	r.CloseReader()
	w.CloseWriter()
}

func TestInterruptUnblocksRead(t *testing.T) {
	r, _ := New()
	readerSt := state.New()

	done := make(chan error, 1)
	go func() {
		_, err := r.Read(readerSt)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	readerSt.Interrupt.Interrupt()

	select {
	case err := <-done:
		require.ErrorIs(t, err, errs.ErrInterrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt did not unblock Read")
	}
}
