// Package sht31 provides a driver for the Sensirion SHT31 humidity and
// temperature sensor over I2C.
//
// Each read returns a humidity word followed by a temperature word. A word
// whose CRC fails keeps the previous converted value.
package sht31

import (
	"errors"
	"strings"

	"dusterilizer-go/drivers/sensirion"
	"dusterilizer-go/errcode"
	"dusterilizer-go/types"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x44

const (
	cmdReadMeasured = 0x5C24
	cmdSoftReset    = 0x805D
	cmdReadID       = 0xEFC8
)

// Plausibility bounds.
const (
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
	MinTemperature = -30.0
	MaxTemperature = 100.0
)

var ErrNoHumidity = errors.New("sht31: no humidity reading")

// Config controls non-hardware behaviour. All fields are optional.
type Config = sensirion.Config

// Device wraps an I2C connection to an SHT31.
type Device struct {
	sensirion.Link

	humidity    float64
	temperature float64
	stale       []string
}

// New creates a Device. It does not touch the bus.
func New(bus drivers.I2C, cfg Config) *Device {
	return &Device{Link: sensirion.NewLink(bus, string(types.SensorSHT31), Address, cfg)}
}

// Init performs one read. The sensor is usable if it reports a positive
// humidity.
func (d *Device) Init() bool { return d.Start() == nil }

// Start is Init with the failure reason.
func (d *Device) Start() error {
	if err := d.ReadMeasuredValues(); err != nil && !errcode.Is(err, errcode.ChecksumFault) {
		return err
	}
	if d.humidity <= 0 {
		return ErrNoHumidity
	}
	return nil
}

// ReadMeasuredValues reads and converts humidity and temperature. The
// error is nil, or carries ChecksumFault, RangeFault or BusFault.
func (d *Device) ReadMeasuredValues() error {
	d.stale = d.stale[:0]
	frame, err := d.ReadFrame(sensirion.Command(cmdReadMeasured), 2*sensirion.WordLen)
	if err != nil {
		return err
	}
	if raw, ok := d.Word("humidity", frame[0:3]); ok {
		d.humidity = 100 * float64(raw) / 65535
	} else {
		d.stale = append(d.stale, "humidity")
	}
	if raw, ok := d.Word("temperature", frame[3:6]); ok {
		d.temperature = -45 + 175*float64(raw)/65535
	} else {
		d.stale = append(d.stale, "temperature")
	}

	var field string
	switch {
	case d.humidity < MinHumidity || d.humidity > MaxHumidity:
		field = "humidity"
	case d.temperature < MinTemperature || d.temperature > MaxTemperature:
		field = "temperature"
	}
	if field != "" {
		msg := field + " out of range"
		d.SetStatus(types.StatusError(errcode.RangeFault, msg))
		return errcode.New(errcode.RangeFault, "sht31.read", msg)
	}
	d.SetStatus(types.StatusOK())
	if len(d.stale) > 0 {
		return errcode.New(errcode.ChecksumFault, "sht31.read", strings.Join(d.stale, ",")+" retained")
	}
	return nil
}

// Reset issues a soft reset.
func (d *Device) Reset() error {
	return d.WriteCommand(sensirion.Command(cmdSoftReset))
}

// ReadID returns the ID register.
func (d *Device) ReadID() (uint16, error) {
	frame, err := d.ReadFrame(sensirion.Command(cmdReadID), sensirion.WordLen)
	if err != nil {
		return 0, err
	}
	v, ok := d.Word("id", frame)
	if !ok {
		return 0, errcode.New(errcode.ChecksumFault, "sht31.id", "crc mismatch")
	}
	return v, nil
}

// Humidity returns relative humidity in %RH.
func (d *Device) Humidity() float64 { return d.humidity }

// Temperature returns the temperature in °C.
func (d *Device) Temperature() float64 { return d.temperature }

// Readings returns humidity then temperature, the order they are reported.
func (d *Device) Readings() [2]types.ClimateReading {
	return [2]types.ClimateReading{
		{Quantity: types.QuantityHumidity, Value: d.humidity},
		{Quantity: types.QuantityTemperature, Value: d.temperature},
	}
}

// Stale returns the fields retained during the last read.
func (d *Device) Stale() []string { return append([]string(nil), d.stale...) }
