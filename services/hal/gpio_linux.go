//go:build linux

package hal

import (
	"fmt"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// Chip is a GPIO character device.
type Chip struct {
	chip *gpiod.Chip
}

// OpenGPIO opens a chip by name, e.g. "gpiochip0".
func OpenGPIO(name string) (*Chip, error) {
	c, err := gpiod.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open chip %s: %w", name, err)
	}
	return &Chip{chip: c}, nil
}

func (c *Chip) Output(offset int, initial bool) (OutputPin, error) {
	l, err := c.chip.RequestLine(offset, gpiod.AsOutput(boolToInt(initial)))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", offset, err)
	}
	return &line{l: l, offset: offset}, nil
}

func (c *Chip) Input(offset int, pull Pull) (InputPin, error) {
	opts := []gpiod.LineReqOption{gpiod.AsInput}
	switch pull {
	case PullUp:
		opts = append(opts, gpiod.WithPullUp)
	case PullDown:
		opts = append(opts, gpiod.WithPullDown)
	}
	l, err := c.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", offset, err)
	}
	return &line{l: l, offset: offset}, nil
}

func (c *Chip) Close() error { return c.chip.Close() }

type line struct {
	l      *gpiod.Line
	offset int
}

func (p *line) Set(level bool) error {
	if err := p.l.SetValue(boolToInt(level)); err != nil {
		return fmt.Errorf("set pin %d: %w", p.offset, err)
	}
	return nil
}

func (p *line) Get() (bool, error) {
	v, err := p.l.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", p.offset, err)
	}
	return v != 0, nil
}

func (p *line) Close() error { return p.l.Close() }
