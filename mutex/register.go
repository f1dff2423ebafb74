package mutex

import (
	"github.com/siffiejoe/tinylthread/handle"
	"github.com/siffiejoe/tinylthread/state"
)

func init() {
	handle.Register(func(dst *state.State, m *Mutex) (handle.Handle, error) {
		return m.CopyTo(dst)
	})
}
