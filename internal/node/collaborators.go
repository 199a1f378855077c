package node

import (
	"context"
	"time"
)

// Radio is the wireless network stack.
type Radio interface {
	// Activate powers the radio on or off.
	Activate(on bool) error

	// Connect starts association. It may return before the link is up.
	Connect(ssid, passphrase string) error

	// IsConnected reports whether the radio is associated. It is polled once
	// per poll interval, so implementations bound it well below that.
	IsConnected() bool

	// Disconnect leaves the current network.
	Disconnect() error

	// AddressInfo describes the assigned address. Diagnostics only.
	AddressInfo() (string, error)
}

// Sensor is the temperature/humidity peripheral on the two-wire bus.
// Both calls block for one bus transaction and report faults as errors.
type Sensor interface {
	Humidity() (float64, error)
	Temperature() (float64, error)
}

// Session is one broker publish session. Every method may fail on
// transport errors.
type Session interface {
	Connect() error
	Publish(topic string, payload []byte) error
	Disconnect() error
}

// SessionFactory builds a fresh, unconnected Session from the broker
// settings (client id, address, credentials) it closes over.
type SessionFactory func() (Session, error)

// Halter puts the processor into a timed low-power halt. On success it does
// not return; the process starts from scratch when the timer fires.
type Halter interface {
	Halt(d time.Duration) error
}

// Recorder receives a report for every finished cycle. Recorders are
// diagnostics; their errors are logged and never change the lifecycle.
type Recorder interface {
	RecordCycle(ctx context.Context, report CycleReport) error
}

// Logger defines the logging interface used by the lifecycle.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SleepFunc blocks for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
