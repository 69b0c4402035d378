// Package hal is the hardware boundary: the shared I2C bus, GPIO lines and
// LED strips. Services depend on the interfaces here, never on a concrete
// controller.
package hal

import (
	"dusterilizer-go/x/colorx"

	"tinygo.org/x/drivers"
)

// I2C is the bus shape every sensor driver talks to.
type I2C = drivers.I2C

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// OutputPin drives one GPIO line.
type OutputPin interface {
	Set(level bool) error
	Close() error
}

// InputPin samples one GPIO line.
type InputPin interface {
	Get() (bool, error)
	Close() error
}

// GPIO hands out lines by offset on one chip.
type GPIO interface {
	Output(offset int, initial bool) (OutputPin, error)
	Input(offset int, pull Pull) (InputPin, error)
	Close() error
}

// ---- LED strips ----

// Strip is an addressable LED strip. SetPixel only stages; Flush writes.
type Strip interface {
	Len() int
	SetPixel(i int, c colorx.RGB)
	Flush() error
}
