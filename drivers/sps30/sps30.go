// Package sps30 provides a driver for the Sensirion SPS30 particulate
// matter sensor over I2C.
//
//	d := sps30.New(bus, sps30.Config{})
//	if d.Init() { ... }
//	err := d.ReadMeasuredValues()   // nil, checksum_fault, range_fault or bus_fault
//	r := d.Reading()
//
// Measured values use the big-endian IEEE-754 output format. A field whose
// CRC fails keeps its previous value; the whole set is then range-checked.
package sps30

import (
	"errors"
	"math"
	"strings"

	"dusterilizer-go/drivers/sensirion"
	"dusterilizer-go/errcode"
	"dusterilizer-go/types"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x69

// Command codes.
const (
	cmdStartMeasurement  = 0x0010
	cmdStopMeasurement   = 0x0104
	cmdReadDataReady     = 0x0202
	cmdReadMeasured      = 0x0300
	cmdAutoCleanInterval = 0x8004
	cmdStartFanCleaning  = 0x5607
	cmdReadArticleCode   = 0xD025
	cmdReadSerialNumber  = 0xD033
	cmdReset             = 0xD304

	outputFormatFloat = 0x0300

	measuredLen = 10 * sensirion.Word32Len
	stringLen   = 16 * sensirion.WordLen
)

// Plausibility bounds.
const (
	MaxMass  = 1000 // µg/m³
	MaxCount = 3000 // #/cm³
)

// Errors returned by the driver.
var (
	ErrNotReady = errors.New("sps30: no new measurement")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config = sensirion.Config

// Device wraps an I2C connection to an SPS30.
type Device struct {
	sensirion.Link

	reading types.ParticulateReading
	ready   bool
	stale   []string
}

// New creates a Device. It does not touch the bus.
func New(bus drivers.I2C, cfg Config) *Device {
	return &Device{Link: sensirion.NewLink(bus, string(types.SensorSPS30), Address, cfg)}
}

// Init reports whether Start succeeded.
func (d *Device) Init() bool { return d.Start() == nil }

// Start zeroes the auto-cleaning interval, resets the sensor, starts
// continuous measurement and checks the data-ready flag. ErrNotReady is
// returned when the flag is not set.
func (d *Device) Start() error {
	log := d.Logger()
	if err := d.WriteAutoCleaningInterval(0); err != nil {
		log.Debug("sps30 start: auto-clean interval not written", "error", err)
	}
	if err := d.Reset(); err != nil {
		log.Debug("sps30 start: reset failed", "error", err)
	}
	if err := d.StartMeasurement(); err != nil {
		return err
	}
	if v, err := d.ReadAutoCleaningInterval(); err != nil {
		log.Debug("sps30 start: auto-clean interval not read", "error", err)
	} else {
		log.Debug("sps30 start", "auto_clean_interval_s", v)
	}
	ready, err := d.ReadDataReadyFlag()
	if err != nil {
		return err
	}
	if !ready {
		return ErrNotReady
	}
	return nil
}

// StartMeasurement enters measurement mode with float output.
func (d *Device) StartMeasurement() error {
	return d.WriteCommand(sensirion.CommandWithWords(cmdStartMeasurement, outputFormatFloat))
}

// StopMeasurement returns the sensor to idle mode.
func (d *Device) StopMeasurement() error {
	return d.WriteCommand(sensirion.Command(cmdStopMeasurement))
}

// Reset issues a soft reset.
func (d *Device) Reset() error {
	return d.WriteCommand(sensirion.Command(cmdReset))
}

// StartFanCleaning runs the fan at full speed for the cleaning period.
func (d *Device) StartFanCleaning() error {
	return d.WriteCommand(sensirion.Command(cmdStartFanCleaning))
}

// ReadDataReadyFlag reports whether a new measurement is available. A CRC
// mismatch leaves the cached flag unchanged.
func (d *Device) ReadDataReadyFlag() (bool, error) {
	frame, err := d.ReadFrame(sensirion.Command(cmdReadDataReady), sensirion.WordLen)
	if err != nil {
		return d.ready, err
	}
	v, ok := d.Word("data_ready", frame)
	if !ok {
		return d.ready, errcode.New(errcode.ChecksumFault, "sps30.ready", "data ready flag crc mismatch")
	}
	d.ready = v&0xFF == 0x01
	return d.ready, nil
}

// Ready returns the last data-ready flag read.
func (d *Device) Ready() bool { return d.ready }

// ReadAutoCleaningInterval returns the fan auto-cleaning interval in seconds.
func (d *Device) ReadAutoCleaningInterval() (uint32, error) {
	frame, err := d.ReadFrame(sensirion.Command(cmdAutoCleanInterval), sensirion.Word32Len)
	if err != nil {
		return 0, err
	}
	v, ok := d.Uint32("auto_clean_interval", frame)
	if !ok {
		return 0, errcode.New(errcode.ChecksumFault, "sps30.autoclean", "interval crc mismatch")
	}
	return v, nil
}

// WriteAutoCleaningInterval sets the interval in seconds; 0 disables it.
func (d *Device) WriteAutoCleaningInterval(seconds uint32) error {
	cmd := sensirion.CommandWithWords(cmdAutoCleanInterval, uint16(seconds>>16), uint16(seconds))
	return d.WriteCommand(cmd)
}

// ReadArticleCode returns the article code string.
func (d *Device) ReadArticleCode() (string, error) {
	return d.readString(cmdReadArticleCode, "article_code")
}

// ReadSerialNumber returns the serial number string.
func (d *Device) ReadSerialNumber() (string, error) {
	return d.readString(cmdReadSerialNumber, "serial_number")
}

func (d *Device) readString(cmd uint16, field string) (string, error) {
	frame, err := d.ReadFrame(sensirion.Command(cmd), stringLen)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := 0; i < stringLen; i += sensirion.WordLen {
		w, ok := d.Word(field, frame[i:i+sensirion.WordLen])
		if !ok {
			return "", errcode.New(errcode.ChecksumFault, "sps30."+field, "crc mismatch")
		}
		for _, c := range [2]byte{byte(w >> 8), byte(w)} {
			if c == 0 {
				return sb.String(), nil
			}
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

// ReadMeasuredValues reads all ten values. Fields whose CRC fails keep
// their previous value and are listed by Stale. The combined set is then
// range-checked. The error is nil, or carries ChecksumFault, RangeFault
// or BusFault.
func (d *Device) ReadMeasuredValues() error {
	d.stale = d.stale[:0]
	frame, err := d.ReadFrame(sensirion.Command(cmdReadMeasured), measuredLen)
	if err != nil {
		return err
	}

	r := &d.reading
	fields := [...]struct {
		name string
		dst  *float32
	}{
		{"pm1_mass", &r.PM1Mass},
		{"pm25_mass", &r.PM25Mass},
		{"pm4_mass", &r.PM4Mass},
		{"pm10_mass", &r.PM10Mass},
		{"pm05_num", &r.PM05Num},
		{"pm1_num", &r.PM1Num},
		{"pm25_num", &r.PM25Num},
		{"pm4_num", &r.PM4Num},
		{"pm10_num", &r.PM10Num},
		{"typical_size", &r.TypicalSize},
	}
	for i, f := range fields {
		off := i * sensirion.Word32Len
		v, ok := d.Float(f.name, frame[off:off+sensirion.Word32Len])
		if !ok {
			d.stale = append(d.stale, f.name)
			continue
		}
		*f.dst = v
	}

	if field := d.outOfRange(); field != "" {
		msg := field + " out of range"
		d.SetStatus(types.StatusError(errcode.RangeFault, msg))
		return errcode.New(errcode.RangeFault, "sps30.read", msg)
	}
	d.SetStatus(types.StatusOK())
	if len(d.stale) > 0 {
		return errcode.New(errcode.ChecksumFault, "sps30.read", strings.Join(d.stale, ",")+" retained")
	}
	return nil
}

func (d *Device) outOfRange() string {
	r := d.reading
	mass := [...]struct {
		name string
		v    float32
	}{
		{"pm1_mass", r.PM1Mass}, {"pm25_mass", r.PM25Mass},
		{"pm4_mass", r.PM4Mass}, {"pm10_mass", r.PM10Mass},
	}
	for _, m := range mass {
		if !(m.v >= 0 && m.v <= MaxMass) {
			return m.name
		}
	}
	count := [...]struct {
		name string
		v    float32
	}{
		{"pm05_num", r.PM05Num}, {"pm1_num", r.PM1Num}, {"pm25_num", r.PM25Num},
		{"pm4_num", r.PM4Num}, {"pm10_num", r.PM10Num},
	}
	for _, c := range count {
		if !(c.v >= 0 && c.v <= MaxCount) {
			return c.name
		}
	}
	// Typical size has no plausibility bound, but it must be a number.
	if s := float64(r.TypicalSize); math.IsNaN(s) || math.IsInf(s, 0) {
		return "typical_size"
	}
	return ""
}

// Reading returns the current value set. Check Status before trusting it.
func (d *Device) Reading() types.ParticulateReading { return d.reading }

// Stale returns the fields retained from an earlier read during the last
// ReadMeasuredValues.
func (d *Device) Stale() []string { return append([]string(nil), d.stale...) }
