// Package sensiriontest provides a scripted I2C bus for driver tests.
package sensiriontest

import (
	"errors"
	"math"
	"sync"
	"time"

	"dusterilizer-go/drivers/sensirion"
)

// ErrNoResponse is returned by a read with no scripted response.
var ErrNoResponse = errors.New("sensiriontest: no scripted response")

// Bus answers reads with the frame scripted for the most recently
// written command code. It records every write.
type Bus struct {
	mu sync.Mutex

	responses map[uint16][]byte
	writes    [][]byte
	addrs     []uint16
	last      uint16

	// FailWrite / FailRead, when set, are returned by the next writes/reads.
	FailWrite error
	FailRead  error
}

// NewBus returns a bus with no scripted responses.
func NewBus() *Bus { return &Bus{responses: map[uint16][]byte{}} }

// Respond scripts the frame returned after cmd is written.
func (b *Bus) Respond(cmd uint16, frame []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[cmd] = append([]byte(nil), frame...)
}

// Tx implements drivers.I2C.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addrs = append(b.addrs, addr)
	if len(w) > 0 {
		if b.FailWrite != nil {
			return b.FailWrite
		}
		b.writes = append(b.writes, append([]byte(nil), w...))
		if len(w) >= 2 {
			b.last = uint16(w[0])<<8 | uint16(w[1])
		}
	}
	if len(r) > 0 {
		if b.FailRead != nil {
			return b.FailRead
		}
		resp, ok := b.responses[b.last]
		if !ok || len(resp) < len(r) {
			return ErrNoResponse
		}
		copy(r, resp)
	}
	return nil
}

// Writes returns a copy of every written frame, in order.
func (b *Bus) Writes() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.writes))
	copy(out, b.writes)
	return out
}

// Commands returns the command code of every write, in order.
func (b *Bus) Commands() []uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]uint16, 0, len(b.writes))
	for _, w := range b.writes {
		if len(w) >= 2 {
			out = append(out, uint16(w[0])<<8|uint16(w[1]))
		}
	}
	return out
}

// Addrs returns the address of every transaction, in order.
func (b *Bus) Addrs() []uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint16(nil), b.addrs...)
}

// Words builds a response frame from 16-bit values with valid CRCs.
func Words(vals ...uint16) []byte {
	var b []byte
	for _, v := range vals {
		b = sensirion.AppendWord(b, v)
	}
	return b
}

// Floats builds a response frame from float32 values, two words each.
func Floats(vals ...float32) []byte {
	var b []byte
	for _, v := range vals {
		b = sensirion.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// NoSleep is a Config.Sleep that returns immediately.
func NoSleep(time.Duration) {}
