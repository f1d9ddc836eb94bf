package keylock

import "errors"

// ErrAcquireTimeout is returned when a lock cannot be acquired within the
// configured wait deadline.
var ErrAcquireTimeout = errors.New("lock acquisition timeout")
