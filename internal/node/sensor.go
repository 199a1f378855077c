package node

import "fmt"

// SensorClient reads the AHT10 through the Sensor interface.
// Faults are returned, never retried here.
type SensorClient struct {
	sensor Sensor
}

// NewSensorClient wraps a sensor peripheral.
func NewSensorClient(sensor Sensor) *SensorClient {
	return &SensorClient{sensor: sensor}
}

// Read takes one measurement, humidity first.
func (c *SensorClient) Read() (Reading, error) {
	humidity, err := c.sensor.Humidity()
	if err != nil {
		return Reading{}, fmt.Errorf("%w: humidity: %w", ErrSensor, err)
	}

	temperature, err := c.sensor.Temperature()
	if err != nil {
		return Reading{}, fmt.Errorf("%w: temperature: %w", ErrSensor, err)
	}

	return Reading{Temperature: temperature, Humidity: humidity}, nil
}
