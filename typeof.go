package tinylthread

import (
	"github.com/siffiejoe/tinylthread/mutex"
	"github.com/siffiejoe/tinylthread/port"
	"github.com/siffiejoe/tinylthread/state"
	"github.com/siffiejoe/tinylthread/thread"
)

// TypeOf returns "thread", "mutex", "port", "interrupt", or "" for any value
// not recognised by this library (spec §4.6, §6).
func TypeOf(v any) string {
	switch v.(type) {
	case *thread.Thread:
		return "thread"
	case *mutex.Mutex:
		return "mutex"
	case *port.Reader, *port.Writer:
		return "port"
	case *state.InterruptSentinel:
		return "interrupt"
	default:
		return ""
	}
}
