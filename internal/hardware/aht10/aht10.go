package aht10

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// Protocol constants.
const (
	// i2cSlave is the I2C_SLAVE ioctl request from linux/i2c-dev.h.
	i2cSlave = 0x0703

	cmdInitialise = 0xE1
	cmdTrigger    = 0xAC

	statusBusy       = 0x80
	statusCalibrated = 0x08

	frameLen = 6

	// fullScale is 2^20, the range of both 20-bit readings.
	fullScale = 1 << 20

	initDelay        = 20 * time.Millisecond
	measurementDelay = 80 * time.Millisecond

	// busyRetries bounds how often a busy frame is re-read.
	busyRetries = 3
)

// Device is an AHT10 on an I2C bus.
type Device struct {
	mu     sync.Mutex
	bus    io.ReadWriteCloser
	sleep  func(time.Duration)
	closed bool
}

// Open opens the I2C character device, selects the sensor address and
// initialises the sensor.
//
// Parameters:
//   - cfg: Sensor configuration (device path and 7-bit address)
//
// Returns:
//   - *Device: Initialised sensor
//   - error: ErrOpenFailed or an initialisation error
func Open(cfg config.SensorConfig) (*Device, error) {
	f, err := os.OpenFile(cfg.Device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, cfg.Address); err != nil { //nolint:gosec // Fd fits in int on Linux
		_ = f.Close()
		return nil, fmt.Errorf("%w: select address 0x%02x: %w", ErrOpenFailed, cfg.Address, err)
	}

	d := New(f)
	if err := d.Init(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return d, nil
}

// New wraps an already addressed bus. Init is not called.
func New(bus io.ReadWriteCloser) *Device {
	return &Device{bus: bus, sleep: time.Sleep}
}

// Init sends the initialise command and checks the calibration bit.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if err := d.write(cmdInitialise, 0x08, 0x00); err != nil {
		return err
	}
	d.sleep(initDelay)

	status, err := d.readStatus()
	if err != nil {
		return err
	}
	if status&statusCalibrated == 0 {
		return fmt.Errorf("%w: status 0x%02x", ErrNotCalibrated, status)
	}
	return nil
}

// Humidity measures relative humidity in percent.
func (d *Device) Humidity() (float64, error) {
	frame, err := d.measure()
	if err != nil {
		return 0, err
	}
	return decodeHumidity(frame), nil
}

// Temperature measures temperature in degrees Celsius.
func (d *Device) Temperature() (float64, error) {
	frame, err := d.measure()
	if err != nil {
		return 0, err
	}
	return decodeTemperature(frame), nil
}

// Close releases the bus. Further measurements return ErrClosed.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.bus.Close()
}

// measure triggers one conversion and returns a settled frame.
func (d *Device) measure() ([frameLen]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var frame [frameLen]byte
	if d.closed {
		return frame, ErrClosed
	}

	if err := d.write(cmdTrigger, 0x33, 0x00); err != nil {
		return frame, err
	}

	for attempt := 0; attempt <= busyRetries; attempt++ {
		d.sleep(measurementDelay)

		if err := d.read(frame[:]); err != nil {
			return frame, err
		}
		if frame[0]&statusBusy == 0 {
			return frame, nil
		}
	}
	return frame, fmt.Errorf("%w: after %d reads", ErrBusy, busyRetries+1)
}

func (d *Device) readStatus() (byte, error) {
	var b [1]byte
	if err := d.read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Device) write(cmd ...byte) error {
	n, err := d.bus.Write(cmd)
	if err != nil {
		return fmt.Errorf("%w: write 0x%02x: %w", ErrBus, cmd[0], err)
	}
	if n != len(cmd) {
		return fmt.Errorf("%w: short write %d/%d", ErrBus, n, len(cmd))
	}
	return nil
}

func (d *Device) read(buf []byte) error {
	if _, err := io.ReadFull(d.bus, buf); err != nil {
		return fmt.Errorf("%w: read %d bytes: %w", ErrBus, len(buf), err)
	}
	return nil
}

// decodeHumidity extracts the 20-bit humidity from bytes 1..3.
func decodeHumidity(frame [frameLen]byte) float64 {
	raw := uint32(frame[1])<<12 | uint32(frame[2])<<4 | uint32(frame[3])>>4
	return float64(raw) * 100 / fullScale
}

// decodeTemperature extracts the 20-bit temperature from bytes 3..5.
func decodeTemperature(frame [frameLen]byte) float64 {
	raw := uint32(frame[3]&0x0F)<<16 | uint32(frame[4])<<8 | uint32(frame[5])
	return float64(raw)*200/fullScale - 50
}
