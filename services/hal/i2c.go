package hal

import (
	"sync"
)

// SharedI2C serialises access to one controller. Tx holds the lock for a
// single transfer; Do holds it across a whole write, settle, read sequence.
type SharedI2C struct {
	mu  sync.Mutex
	raw I2C
}

func NewSharedI2C(raw I2C) *SharedI2C { return &SharedI2C{raw: raw} }

// Tx implements drivers.I2C.
func (s *SharedI2C) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw.Tx(addr, w, r)
}

// Do runs fn with exclusive use of the bus. fn must use the bus it is
// given, not s.
func (s *SharedI2C) Do(fn func(bus I2C) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.raw)
}
