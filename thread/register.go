package thread

import (
	"github.com/siffiejoe/tinylthread/handle"
	"github.com/siffiejoe/tinylthread/state"
)

func init() {
	handle.Register(func(dst *state.State, t *Thread) (handle.Handle, error) {
		return t.CopyTo(dst)
	})
}
