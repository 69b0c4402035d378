package bus

import "errors"

// ErrClosed is returned by Get on a closed, drained queue.
var ErrClosed = errors.New("bus: queue closed")
