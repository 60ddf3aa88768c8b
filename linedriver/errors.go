package linedriver

import "errors"

// ErrTimeout signals that a deadline-bounded read did not see its
// predicate satisfied before the deadline passed.
var ErrTimeout = errors.New("linedriver: timeout")

// ErrLinkIO wraps an OS-level failure on open, read, write, or baud change.
var ErrLinkIO = errors.New("linedriver: link I/O error")

// ErrCancelled signals a caller-tripped cancellation during a blocked read.
var ErrCancelled = errors.New("linedriver: cancelled")

// ErrBusy signals that the port is already owned by another session.
var ErrBusy = errors.New("linedriver: port busy")
