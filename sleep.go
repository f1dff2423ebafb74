package tinylthread

import (
	"fmt"
	"sync"
	"time"

	"github.com/siffiejoe/tinylthread/internal/errs"
	"github.com/siffiejoe/tinylthread/internal/interruptx"
	"github.com/siffiejoe/tinylthread/internal/refc"
	"github.com/siffiejoe/tinylthread/state"
)

// Sleep implements the interruptible sleep (spec §4.6). seconds must be
// non-negative. It follows the same publish-block/wait/check discipline as
// every other blocking primitive, backed by a private condition variable
// whose only other signaller is a one-shot timer standing in for the
// underlying OS interruptible-sleep primitive.
func Sleep(st *state.State, seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("tinylthread: sleep: seconds must be non-negative, got %v", seconds)
	}

	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	header := refc.NewHeader()
	desc := &interruptx.Desc{HeaderMu: header.Mutex(), Cond: cond}

	deadline := time.Now().Add(time.Duration(seconds * float64(time.Second)))

	mu.Lock()
	defer mu.Unlock()

	timer := time.AfterFunc(time.Until(deadline), func() {
		mu.Lock()
		cond.Broadcast()
		mu.Unlock()
	})
	defer timer.Stop()

	for !st.Interrupt.ShouldThrow() {
		if time.Now().After(deadline) || time.Now().Equal(deadline) {
			return nil
		}
		st.Interrupt.PublishBlock(desc)
		cond.Wait()
		st.Interrupt.ClearBlock()
	}
	return errs.ErrInterrupted
}

// NoInterrupt arms the one-shot ignore-interrupt mask on st's current
// thread (spec §4.6): the next interrupt check consumes the mask instead of
// throwing, letting one more blocking call complete even with an interrupt
// pending. Used by cleanup logic that must run despite a pending interrupt.
func NoInterrupt(st *state.State) {
	st.Interrupt.NoInterrupt()
}
