// Package tinylthread is a concurrency runtime for embedded, single-threaded
// scripting interpreters whose native state is not safe to share across
// goroutines: preemptively-scheduled threads (package thread), a reentrant
// mutex (package mutex), and a synchronous rendezvous channel with separate
// read/write endpoints (package port), all built on the interrupt protocol
// in internal/interruptx and the value-copy engine in package copyval.
//
// Each spawned thread owns a fresh state.State wrapping its own
// *goja.Runtime; values cross thread boundaries only through copyval.Copy or
// through handles to the primitives themselves (package handle).
//
// This root package exposes the operations that don't belong to any one
// handle type: Sleep, NoInterrupt, and TypeOf.
package tinylthread
