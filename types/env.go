package types

// SensorID names a polled sensor. It prefixes the inbound queue topics.
type SensorID string

const (
	SensorSPS30 SensorID = "sps30" // particulate matter
	SensorSHT31 SensorID = "sht31" // humidity / temperature
	SensorSGP30 SensorID = "sgp30" // gas (eCO2 / TVOC)
)

// ------------------------
// Particulate matter
// ------------------------

// ParticulateReading is one validated SPS30 measurement set.
// Mass concentrations in µg/m³, number concentrations in #/cm³,
// typical particle size in µm.
type ParticulateReading struct {
	PM05Num     float32 `json:"pm05_num"`
	PM1Num      float32 `json:"pm1_num"`
	PM25Num     float32 `json:"pm25_num"`
	PM4Num      float32 `json:"pm4_num"`
	PM10Num     float32 `json:"pm10_num"`
	PM1Mass     float32 `json:"pm1_mass"`
	PM25Mass    float32 `json:"pm25_mass"`
	PM4Mass     float32 `json:"pm4_mass"`
	PM10Mass    float32 `json:"pm10_mass"`
	TypicalSize float32 `json:"typical_size"`
}

// Field is one named value of a reading.
type Field struct {
	Name  string
	Value float32
}

// Fields lists the values in wire order.
func (r ParticulateReading) Fields() []Field {
	return []Field{
		{"pm1_mass", r.PM1Mass},
		{"pm25_mass", r.PM25Mass},
		{"pm4_mass", r.PM4Mass},
		{"pm10_mass", r.PM10Mass},
		{"pm05_num", r.PM05Num},
		{"pm1_num", r.PM1Num},
		{"pm25_num", r.PM25Num},
		{"pm4_num", r.PM4Num},
		{"pm10_num", r.PM10Num},
		{"typical_size", r.TypicalSize},
	}
}

// ------------------------
// Temperature & humidity
// ------------------------

type Quantity uint8

const (
	QuantityHumidity    Quantity = iota + 1 // %RH
	QuantityTemperature                     // °C
)

func (q Quantity) String() string {
	switch q {
	case QuantityHumidity:
		return "humidity"
	case QuantityTemperature:
		return "temperature"
	default:
		return "unknown"
	}
}

// ClimateReading is a single scalar from the humidity/temperature sensor.
type ClimateReading struct {
	Quantity Quantity `json:"quantity"`
	Value    float64  `json:"value"`
}

// ------------------------
// Gas
// ------------------------

// GasReading pairs the CO2-equivalent (ppm) and TVOC (ppb) signals.
type GasReading struct {
	CO2eq uint16 `json:"co2"`
	TVOC  uint16 `json:"voc"`
}
