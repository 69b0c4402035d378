//go:build !linux

package hal

import "dusterilizer-go/errcode"

// Chip is unavailable off Linux; use MemGPIO instead.
type Chip struct{}

func OpenGPIO(name string) (*Chip, error) {
	return nil, errcode.New(errcode.Unsupported, "gpio.open", "gpio character devices need linux")
}

func (*Chip) Output(int, bool) (OutputPin, error) { return nil, errcode.Unsupported }
func (*Chip) Input(int, Pull) (InputPin, error)   { return nil, errcode.Unsupported }
func (*Chip) Close() error                        { return nil }
