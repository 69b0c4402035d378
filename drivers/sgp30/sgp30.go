// Package sgp30 provides a driver for the Sensirion SGP30 gas sensor
// (eCO2 and TVOC) over I2C.
package sgp30

import (
	"errors"
	"strings"

	"dusterilizer-go/drivers/sensirion"
	"dusterilizer-go/errcode"
	"dusterilizer-go/types"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x58

const (
	cmdInitAirQuality    = 0x2003
	cmdMeasureAirQuality = 0x2008
	cmdGetBaseline       = 0x2015
	cmdSetBaseline       = 0x201E
	cmdMeasureTest       = 0x2032
	cmdGetFeatureSet     = 0x202F
	cmdMeasureRawSignals = 0x2050
	cmdGetSerialID       = 0x3682

	selfTestPass = 0xD400
)

// Plausibility bounds.
const (
	MinCO2eq = 400   // ppm
	MaxCO2eq = 60000 // ppm
	MaxTVOC  = 60000 // ppb
)

var ErrSelfTest = errors.New("sgp30: self test failed")

// Config controls non-hardware behaviour. All fields are optional.
type Config = sensirion.Config

// Baseline is the pair of compensation values the sensor learns over time.
type Baseline struct {
	CO2eq uint16
	TVOC  uint16
}

// RawSignals are the uncompensated sensor outputs.
type RawSignals struct {
	H2      uint16
	Ethanol uint16
}

// Device wraps an I2C connection to an SGP30.
type Device struct {
	sensirion.Link

	reading types.GasReading
	stale   []string
}

// New creates a Device. It does not touch the bus.
func New(bus drivers.I2C, cfg Config) *Device {
	return &Device{Link: sensirion.NewLink(bus, string(types.SensorSGP30), Address, cfg)}
}

// Init starts the air-quality algorithm. It succeeds iff the command was
// written.
func (d *Device) Init() bool { return d.Start() == nil }

// Start is Init with the failure reason.
func (d *Device) Start() error { return d.InitAirQuality() }

// InitAirQuality issues the init_air_quality command.
func (d *Device) InitAirQuality() error {
	return d.WriteCommand(sensirion.Command(cmdInitAirQuality))
}

// ReadMeasuredValues measures eCO2 and TVOC. The error is nil, or carries
// ChecksumFault, RangeFault or BusFault.
func (d *Device) ReadMeasuredValues() error {
	d.stale = d.stale[:0]
	frame, err := d.ReadFrame(sensirion.Command(cmdMeasureAirQuality), 2*sensirion.WordLen)
	if err != nil {
		return err
	}
	if v, ok := d.Word("co2", frame[0:3]); ok {
		d.reading.CO2eq = v
	} else {
		d.stale = append(d.stale, "co2")
	}
	if v, ok := d.Word("voc", frame[3:6]); ok {
		d.reading.TVOC = v
	} else {
		d.stale = append(d.stale, "voc")
	}

	var field string
	switch {
	case d.reading.CO2eq < MinCO2eq || d.reading.CO2eq > MaxCO2eq:
		field = "co2"
	case d.reading.TVOC > MaxTVOC:
		field = "voc"
	}
	if field != "" {
		msg := field + " out of range"
		d.SetStatus(types.StatusError(errcode.RangeFault, msg))
		return errcode.New(errcode.RangeFault, "sgp30.read", msg)
	}
	d.SetStatus(types.StatusOK())
	if len(d.stale) > 0 {
		return errcode.New(errcode.ChecksumFault, "sgp30.read", strings.Join(d.stale, ",")+" retained")
	}
	return nil
}

// GetBaseline returns the current algorithm baseline.
func (d *Device) GetBaseline() (Baseline, error) {
	a, b, err := d.readPair(cmdGetBaseline, "baseline")
	return Baseline{CO2eq: a, TVOC: b}, err
}

// SetBaseline restores a previously saved baseline.
func (d *Device) SetBaseline(b Baseline) error {
	return d.WriteCommand(sensirion.CommandWithWords(cmdSetBaseline, b.CO2eq, b.TVOC))
}

// MeasureRawSignals returns the raw H2 and ethanol signals.
func (d *Device) MeasureRawSignals() (RawSignals, error) {
	a, b, err := d.readPair(cmdMeasureRawSignals, "raw_signals")
	return RawSignals{H2: a, Ethanol: b}, err
}

// MeasureTest runs the on-chip self test.
func (d *Device) MeasureTest() error {
	v, err := d.readWord(cmdMeasureTest, "self_test")
	if err != nil {
		return err
	}
	if v != selfTestPass {
		return ErrSelfTest
	}
	return nil
}

// FeatureSetVersion returns the product type and version word.
func (d *Device) FeatureSetVersion() (uint16, error) {
	return d.readWord(cmdGetFeatureSet, "feature_set")
}

// SerialID returns the 48-bit serial number.
func (d *Device) SerialID() (uint64, error) {
	frame, err := d.ReadFrame(sensirion.Command(cmdGetSerialID), 3*sensirion.WordLen)
	if err != nil {
		return 0, err
	}
	var id uint64
	for i := 0; i < 3; i++ {
		w, ok := d.Word("serial_id", frame[i*3:i*3+3])
		if !ok {
			return 0, errcode.New(errcode.ChecksumFault, "sgp30.serial", "crc mismatch")
		}
		id = id<<16 | uint64(w)
	}
	return id, nil
}

func (d *Device) readWord(cmd uint16, field string) (uint16, error) {
	frame, err := d.ReadFrame(sensirion.Command(cmd), sensirion.WordLen)
	if err != nil {
		return 0, err
	}
	v, ok := d.Word(field, frame)
	if !ok {
		return 0, errcode.New(errcode.ChecksumFault, "sgp30."+field, "crc mismatch")
	}
	return v, nil
}

func (d *Device) readPair(cmd uint16, field string) (uint16, uint16, error) {
	frame, err := d.ReadFrame(sensirion.Command(cmd), 2*sensirion.WordLen)
	if err != nil {
		return 0, 0, err
	}
	a, ok1 := d.Word(field, frame[0:3])
	b, ok2 := d.Word(field, frame[3:6])
	if !ok1 || !ok2 {
		return 0, 0, errcode.New(errcode.ChecksumFault, "sgp30."+field, "crc mismatch")
	}
	return a, b, nil
}

// Reading returns eCO2 in ppm and TVOC in ppb.
func (d *Device) Reading() types.GasReading { return d.reading }

// Stale returns the fields retained during the last read.
func (d *Device) Stale() []string { return append([]string(nil), d.stale...) }
