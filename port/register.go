package port

import (
	"github.com/siffiejoe/tinylthread/handle"
	"github.com/siffiejoe/tinylthread/state"
)

func init() {
	handle.Register(func(dst *state.State, r *Reader) (handle.Handle, error) {
		return r.CopyTo(dst)
	})
	handle.Register(func(dst *state.State, w *Writer) (handle.Handle, error) {
		return w.CopyTo(dst)
	})
}
