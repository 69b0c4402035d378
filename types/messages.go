package types

import "strconv"

// Each queue edge carries its own closed message set. The unexported
// marker methods keep the sets sealed to this package.

// ------------------------
// sensors -> aggregator
// ------------------------

type MainMsg interface {
	Topic() string
	mainMsg()
}

// SensorInfo reports a sensor's init outcome or a failed poll.
type SensorInfo struct {
	Sensor SensorID
	Status Status
}

// ParticulateData carries a particulate reading (topic sps30_data).
type ParticulateData struct{ Reading ParticulateReading }

// ClimateData carries one humidity or temperature scalar (topic sht31_data).
type ClimateData struct{ Reading ClimateReading }

// GasData carries a gas reading (topic sgp30_data).
type GasData struct{ Reading GasReading }

func (m SensorInfo) Topic() string    { return string(m.Sensor) + "_info" }
func (ParticulateData) Topic() string { return string(SensorSPS30) + "_data" }
func (ClimateData) Topic() string     { return string(SensorSHT31) + "_data" }
func (GasData) Topic() string         { return string(SensorSGP30) + "_data" }

func (SensorInfo) mainMsg()      {}
func (ParticulateData) mainMsg() {}
func (ClimateData) mainMsg()     {}
func (GasData) mainMsg()         {}

// ------------------------
// aggregator -> display
// ------------------------

type DisplayMsg interface {
	Topic() string
	displayMsg()
}

// Percent renders a static bar in the configuration colour.
type Percent struct{ Value float64 }

// PercentSmooth animates towards the hazard percentage; >= 1 pulses.
type PercentSmooth struct{ Value float64 }

func (Percent) Topic() string       { return "percent" }
func (PercentSmooth) Topic() string { return "percent_smooth" }

func (Percent) displayMsg()       {}
func (PercentSmooth) displayMsg() {}

// ------------------------
// aggregator -> logic
// ------------------------

type LogicMsg interface {
	Topic() string
	logicMsg()
}

// Switch drives the actuator output.
type Switch struct{ On bool }

func (s Switch) Topic() string {
	if s.On {
		return "on"
	}
	return "off"
}

func (Switch) logicMsg() {}

// ------------------------
// aggregator -> publish
// ------------------------

type PublishMsg interface {
	Topic() string
	publishMsg()
}

// PMPublish is serialised to JSON with a timestamp injected at publish time.
type PMPublish struct{ Reading ParticulateReading }

// ClimatePublish is passed through to the broker unchanged.
type ClimatePublish struct{ Payload []byte }

func (PMPublish) Topic() string      { return "pm" }
func (ClimatePublish) Topic() string { return "hum/tmp" }

func (PMPublish) publishMsg()      {}
func (ClimatePublish) publishMsg() {}

// ClimatePayload formats a climate scalar as the raw hum/tmp payload.
func ClimatePayload(r ClimateReading) []byte {
	return strconv.AppendFloat(nil, r.Value, 'f', 2, 64)
}
