package node

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// payloadDecimals is the precision of published values.
const payloadDecimals = 2

// Reading is one temperature/humidity measurement.
// It lives for a single cycle and is never reused.
type Reading struct {
	// Temperature in degrees Celsius.
	Temperature float64

	// Humidity in percent relative humidity.
	Humidity float64
}

// String formats the reading the way it appears in log lines.
func (r Reading) String() string {
	return fmt.Sprintf("temperature=%.2f°C humidity=%.2f%%", r.Temperature, r.Humidity)
}

// Payload is the wire record published for a Reading.
//
// The German keys and the two-decimal rounding are part of the wire format
// consumed downstream; do not rename or reformat them.
type Payload struct {
	Temperature float64 `json:"temperatur"`
	Humidity    float64 `json:"luftfeuchtigkeit"`
}

// NewPayload derives the wire record from a reading.
func NewPayload(r Reading) Payload {
	return Payload{
		Temperature: Round2(r.Temperature),
		Humidity:    Round2(r.Humidity),
	}
}

// Encode serialises the payload as UTF-8 JSON.
func (p Payload) Encode() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return data, nil
}

// Round2 rounds v to two decimal places.
//
// Rounding goes through the decimal formatter, so it applies to the exact
// stored value and agrees with the %.2f used in log lines. Exact binary
// halves (0.125) round to even. NaN and ±Inf pass through.
func Round2(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', payloadDecimals, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
