package sensirion

import (
	"fmt"
	"log/slog"
	"time"

	"dusterilizer-go/errcode"
	"dusterilizer-go/types"

	"tinygo.org/x/drivers"
)

// DefaultSettleDelay is the pause after every command write. The sensors
// need it to process a command before the next bus operation.
const DefaultSettleDelay = 20 * time.Millisecond

// MaxFrameLen bounds a single response (SPS30 measured values: 60 bytes,
// SPS30 strings: 48 bytes).
const MaxFrameLen = 60

// Transactor is implemented by shared buses that can run several
// operations without another device interleaving.
type Transactor interface {
	Do(fn func(bus drivers.I2C) error) error
}

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address overrides the chip's default 7-bit address.
	Address uint16
	// SettleDelay defaults to 20 ms.
	SettleDelay time.Duration
	// Sleep is used for the settle delay. Defaults to time.Sleep.
	Sleep func(time.Duration)
	// Logger receives checksum mismatch reports. Nil is silent.
	Logger *slog.Logger
}

// Link is one sensor's handle on the bus: a fixed address, the settle
// delay, and the latched status of the last operation.
type Link struct {
	bus    drivers.I2C
	addr   uint16
	settle time.Duration
	sleep  func(time.Duration)
	log    *slog.Logger
	name   string

	status types.Status
	buf    [MaxFrameLen]byte
}

// NewLink binds a chip name and default address to a bus.
func NewLink(bus drivers.I2C, name string, defaultAddr uint16, cfg Config) Link {
	l := Link{
		bus:    bus,
		addr:   defaultAddr,
		settle: DefaultSettleDelay,
		sleep:  time.Sleep,
		log:    cfg.Logger,
		name:   name,
		status: types.StatusOK(),
	}
	if cfg.Address != 0 {
		l.addr = cfg.Address
	}
	if cfg.SettleDelay > 0 {
		l.settle = cfg.SettleDelay
	}
	if cfg.Sleep != nil {
		l.sleep = cfg.Sleep
	}
	if l.log == nil {
		l.log = slog.New(slog.DiscardHandler)
	}
	return l
}

// Address returns the 7-bit bus address.
func (l *Link) Address() uint16 { return l.addr }

// Logger returns the configured logger, silent when none was given.
func (l *Link) Logger() *slog.Logger { return l.log }

// Status returns the latched status of the last operation.
func (l *Link) Status() types.Status { return l.status }

// SetStatus overwrites the latched status.
func (l *Link) SetStatus(s types.Status) { l.status = s }

// WriteCommand writes cmd and then waits the settle delay. On a bus fault
// the status latches "i2c write failed" and no delay is taken.
func (l *Link) WriteCommand(cmd []byte) error {
	if err := l.bus.Tx(l.addr, cmd, nil); err != nil {
		l.status = types.StatusError(errcode.BusFault, "i2c write failed")
		return &errcode.E{C: errcode.BusFault, Op: l.name + ".write", Msg: "i2c write failed", Err: err}
	}
	l.sleep(l.settle)
	l.status = types.StatusOK()
	return nil
}

// ReadFrame writes cmd, settles, then reads n bytes. The returned slice
// aliases an internal buffer and is valid until the next call.
func (l *Link) ReadFrame(cmd []byte, n int) ([]byte, error) {
	if n <= 0 || n > MaxFrameLen {
		return nil, errcode.New(errcode.Unsupported, l.name+".read", "frame length out of bounds")
	}
	r := l.buf[:n]
	txn := func(bus drivers.I2C) error {
		if err := bus.Tx(l.addr, cmd, nil); err != nil {
			return err
		}
		l.sleep(l.settle)
		return bus.Tx(l.addr, nil, r)
	}

	var err error
	if t, ok := l.bus.(Transactor); ok {
		err = t.Do(txn)
	} else {
		err = txn(l.bus)
	}
	if err != nil {
		l.status = types.StatusError(errcode.BusFault, "i2c read failed")
		return nil, &errcode.E{C: errcode.BusFault, Op: l.name + ".read", Msg: "i2c read failed", Err: err}
	}
	l.status = types.StatusOK()
	return r, nil
}

// Word decodes a 16-bit word, logging a mismatch under field.
func (l *Link) Word(field string, b []byte) (uint16, bool) {
	v, ok := DecodeWord(b)
	if !ok {
		l.logMismatch(field, b)
	}
	return v, ok
}

// Float decodes a 32-bit float, logging a mismatch under field.
func (l *Link) Float(field string, b []byte) (float32, bool) {
	v, ok := DecodeFloat(b)
	if !ok {
		l.logMismatch(field, b)
	}
	return v, ok
}

// Uint32 decodes a 32-bit unsigned value, logging a mismatch under field.
func (l *Link) Uint32(field string, b []byte) (uint32, bool) {
	v, ok := DecodeUint32(b)
	if !ok {
		l.logMismatch(field, b)
	}
	return v, ok
}

func (l *Link) logMismatch(field string, b []byte) {
	want := make([]byte, 0, len(b)/WordLen)
	for i := 0; i+WordLen <= len(b); i += WordLen {
		want = append(want, CRC8(b[i], b[i+1]))
	}
	l.log.Warn("crc mismatch", "sensor", l.name, "field", field,
		"frame", fmt.Sprintf("% x", b), "want_crc", fmt.Sprintf("% x", want))
}
