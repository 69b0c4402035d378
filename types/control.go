package types

import "dusterilizer-go/x/mathx"

// ControlSignal is the per-pollutant hazard ratio (reading / threshold)
// derived by the aggregator. Values are unclamped: >= 1 means exceeded.
type ControlSignal struct {
	PM10 float64 `json:"pm10_percent"`
	CO2  float64 `json:"co2_percent"`
	VOC  float64 `json:"voc_percent"`
}

// DisplayPercent combines the ratios into the single hazard percentage.
func (c ControlSignal) DisplayPercent() float64 {
	return mathx.MaxOf(c.PM10, c.CO2, c.VOC)
}

// Exceeded reports whether any threshold has been reached.
func (c ControlSignal) Exceeded() bool { return c.DisplayPercent() >= 1.0 }
