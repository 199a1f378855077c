package aht10

import "errors"

// Domain errors for the AHT10 driver.
var (
	// ErrOpenFailed is returned when the I2C device cannot be opened or
	// addressed.
	ErrOpenFailed = errors.New("aht10: open failed")

	// ErrNotCalibrated is returned when the sensor does not report its
	// calibration bit after initialisation.
	ErrNotCalibrated = errors.New("aht10: sensor not calibrated")

	// ErrBusy is returned when the sensor stays busy past the retry bound.
	ErrBusy = errors.New("aht10: sensor busy")

	// ErrBus is returned when a bus transfer fails or is short.
	ErrBus = errors.New("aht10: bus transfer failed")

	// ErrClosed is returned when the device has been closed.
	ErrClosed = errors.New("aht10: device closed")
)
