package hal

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PeriphI2C is a host I2C controller opened through periph.
type PeriphI2C struct {
	bus i2c.BusCloser
}

// OpenPeriphI2C initialises the host drivers and opens the named bus
// ("/dev/i2c-1", "1", or "" for the first one). freqHz <= 0 keeps the
// controller's current speed.
func OpenPeriphI2C(name string, freqHz int) (*PeriphI2C, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %w", name, err)
	}
	if freqHz > 0 {
		if err := bus.SetSpeed(physic.Frequency(freqHz) * physic.Hertz); err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("set i2c speed: %w", err)
		}
	}
	return &PeriphI2C{bus: bus}, nil
}

// Tx implements drivers.I2C.
func (p *PeriphI2C) Tx(addr uint16, w, r []byte) error { return p.bus.Tx(addr, w, r) }

func (p *PeriphI2C) Close() error { return p.bus.Close() }

func (p *PeriphI2C) String() string { return p.bus.String() }
