package tinylthread

import "github.com/siffiejoe/tinylthread/internal/errs"

// Error kinds (spec §7). These are the only error kind a caller should
// errors.Is/errors.As against; UnsupportedTypeError additionally carries the
// offending argument index and type name.
var (
	ErrMemory          = errs.ErrMemory
	ErrLockFailed      = errs.ErrLockFailed
	ErrInvalidHandle   = errs.ErrInvalidHandle
	ErrWrongRole       = errs.ErrWrongRole
	ErrBadState        = errs.ErrBadState
	ErrBrokenPipe      = errs.ErrBrokenPipe
	ErrInterrupted     = errs.ErrInterrupted
	ErrNonJoinedThread = errs.ErrNonJoinedThread
)

// UnsupportedTypeError mirrors UnsupportedType{index, type_name}.
type UnsupportedTypeError = errs.UnsupportedTypeError
