package node

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Timings holds the lifecycle delays and attempt bounds.
type Timings struct {
	// Interval is the wait between samples in continuous mode.
	Interval time.Duration

	// RetryDelay is the wait after a failed network or broker connect.
	RetryDelay time.Duration

	// FaultCooldown is the wait after an unexpected fault.
	FaultCooldown time.Duration

	// FlushDelay lets an in-flight publish drain before one-shot teardown.
	FlushDelay time.Duration

	// DeepSleep is the one-shot low-power halt duration.
	DeepSleep time.Duration

	ContinuousAttempts int
	OneShotAttempts    int
}

// DefaultTimings returns the field-tested timings. A one-shot cycle of
// connect, publish and a 58 s halt lands inside a one-minute sample period.
func DefaultTimings() Timings {
	return Timings{
		Interval:           10 * time.Second,
		RetryDelay:         5 * time.Second,
		FaultCooldown:      60 * time.Second,
		FlushDelay:         time.Second,
		DeepSleep:          58 * time.Second,
		ContinuousAttempts: 20,
		OneShotAttempts:    15,
	}
}

// Options configures a Controller.
type Options struct {
	Link    *NetworkLink
	Broker  *BrokerClient
	Sensor  *SensorClient
	Power   *PowerController
	Topic   string
	Timings Timings

	// Optional.
	Sleep     SleepFunc
	Logger    Logger
	Recorders []Recorder
	Now       func() time.Time
}

// Controller orchestrates network, broker, sensor and power into the
// connect, read, publish, sleep sequence and owns the retry policy.
//
// It is the only holder of the connection state and, through its
// BrokerClient, of the broker session.
type Controller struct {
	link    *NetworkLink
	broker  *BrokerClient
	sensor  *SensorClient
	power   *PowerController
	topic   string
	timings Timings

	sleep     SleepFunc
	logger    Logger
	recorders []Recorder
	now       func() time.Time

	state ConnectionState
}

// NewController validates the options and creates a controller.
func NewController(opts Options) (*Controller, error) {
	switch {
	case opts.Link == nil:
		return nil, errors.New("node: network link is required")
	case opts.Broker == nil:
		return nil, errors.New("node: broker client is required")
	case opts.Sensor == nil:
		return nil, errors.New("node: sensor client is required")
	case opts.Power == nil:
		return nil, errors.New("node: power controller is required")
	case opts.Topic == "":
		return nil, errors.New("node: publish topic is required")
	}

	c := &Controller{
		link:      opts.Link,
		broker:    opts.Broker,
		sensor:    opts.Sensor,
		power:     opts.Power,
		topic:     opts.Topic,
		timings:   opts.Timings,
		sleep:     opts.Sleep,
		logger:    opts.Logger,
		recorders: opts.Recorders,
		now:       opts.Now,
		state:     Disconnected,
	}
	if c.sleep == nil {
		c.sleep = Sleep
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// State returns the current connection state.
func (c *Controller) State() ConnectionState {
	return c.state
}

// =============================================================================
// Continuous mode
// =============================================================================

// Run drives continuous mode until ctx is cancelled. Transient faults never
// end the loop; on cancellation the broker session and the radio are torn
// down and Run returns nil.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("continuous mode started",
		"phase", PhaseIdle,
		"topic", c.topic,
		"interval", c.timings.Interval,
	)

	for ctx.Err() == nil {
		result := c.Step(ctx)

		var err error
		switch result {
		case StepNetworkDown, StepBrokerDown:
			err = c.sleep(ctx, c.timings.RetryDelay)
		case StepFault:
			err = c.sleep(ctx, c.timings.FaultCooldown)
		default:
			err = c.power.ScheduleNextCycle(ctx, ModeContinuous)
		}
		if err != nil {
			break
		}
	}

	c.logger.Info("continuous mode stopping", "phase", PhaseTeardown)
	c.teardown()
	return nil
}

// Step runs one continuous-mode iteration and reports how it ended. It
// performs none of the inter-iteration waits, so callers can single-step
// the loop.
func (c *Controller) Step(ctx context.Context) (result StepResult) {
	report := CycleReport{Mode: ModeContinuous, StartedAt: c.now()}

	defer func() {
		if r := recover(); r != nil {
			result = c.fault(&report, fmt.Errorf("%w: %v", ErrPanic, r))
		}
		report.Result = result
		report.Duration = c.now().Sub(report.StartedAt)
		c.record(ctx, report)
	}()

	if !c.link.IsConnected() {
		c.logger.Info("network not connected, connecting", "phase", PhaseNetworkConnecting)
		if !c.link.Connect(ctx, c.timings.ContinuousAttempts) {
			c.state = Disconnected
			return StepNetworkDown
		}
	}
	report.NetworkUp = true
	if c.state == Disconnected {
		c.state = NetworkUp
	}

	if !c.broker.HasSession() {
		c.logger.Info("no broker session, connecting", "phase", PhaseBrokerConnecting)
		if !c.broker.Connect() {
			c.state = Disconnected
			return StepBrokerDown
		}
	}
	report.BrokerUp = true
	c.state = BrokerUp

	reading, err := c.sensor.Read()
	if err != nil {
		return c.fault(&report, err)
	}
	report.Reading = &reading

	report.Published = c.publish(reading)
	if !report.Published {
		c.state = Disconnected
		return StepPublishFailed
	}
	return StepPublished
}

// fault is the top-level safety net: drop the broker session, log, and ask
// for the long cooldown. The cooldown is the configured value; nothing here
// is allowed to end the loop.
func (c *Controller) fault(report *CycleReport, err error) StepResult {
	report.Fault = err
	_ = c.broker.Disconnect() //nolint:errcheck // Already failing, keep the original cause
	c.state = Disconnected

	c.logger.Error("unexpected fault in main loop, connection reset",
		"error", err,
		"cooldown", c.timings.FaultCooldown,
	)
	return StepFault
}

// =============================================================================
// One-shot mode
// =============================================================================

// RunOneShot runs a single cycle and then enters the low-power halt. The
// halt is reached on every path, including faults.
//
// On real hardware it does not return. It returns only if the halt itself
// failed or returned, wrapped in ErrHaltReturned.
func (c *Controller) RunOneShot(ctx context.Context) error {
	report := c.safeCycle(ctx)
	c.record(ctx, report)

	c.logger.Info("entering low-power halt",
		"phase", PhaseDone,
		"duration", c.power.DeepSleep(),
	)
	return c.power.ScheduleNextCycle(ctx, ModeOneShot)
}

// safeCycle runs RunCycle and converts a panic into a fault on the report.
func (c *Controller) safeCycle(ctx context.Context) (report CycleReport) {
	started := c.now()
	defer func() {
		if r := recover(); r != nil {
			report = CycleReport{
				Mode:      ModeOneShot,
				StartedAt: started,
				Fault:     fmt.Errorf("%w: %v", ErrPanic, r),
			}
			c.logger.Error("one-shot cycle aborted", "error", report.Fault)
		}
		report.Duration = c.now().Sub(started)
	}()
	return c.RunCycle(ctx)
}

// RunCycle performs one connect, read, publish, teardown sequence without
// halting. It keeps no state between calls.
func (c *Controller) RunCycle(ctx context.Context) (report CycleReport) {
	report = CycleReport{Mode: ModeOneShot, StartedAt: c.now()}

	if !c.link.Connect(ctx, c.timings.OneShotAttempts) {
		c.state = Disconnected
		c.logger.Warn("no network connection possible, halting anyway to save power")
		return report
	}
	report.NetworkUp = true
	c.state = NetworkUp

	defer func() {
		if r := recover(); r != nil {
			report.Fault = fmt.Errorf("%w: %v", ErrPanic, r)
			c.logger.Error("one-shot cycle aborted", "error", report.Fault)
		}
		c.teardown()
	}()

	if !c.broker.Connect() {
		c.state = Disconnected
		return report
	}
	report.BrokerUp = true
	c.state = BrokerUp

	reading, err := c.sensor.Read()
	if err != nil {
		report.Fault = err
		c.logger.Error("sensor read failed, aborting cycle", "error", err)
		return report
	}
	report.Reading = &reading

	report.Published = c.publish(reading)

	// Let the transmission leave the radio before tearing it down.
	_ = c.sleep(ctx, c.timings.FlushDelay) //nolint:errcheck // Teardown follows regardless
	return report
}

// =============================================================================
// Shared steps
// =============================================================================

// publish builds the payload for a reading and sends it.
func (c *Controller) publish(reading Reading) bool {
	c.logger.Info("measurement", "reading", reading.String())

	ok := c.broker.Publish(c.topic, NewPayload(reading))
	if ok {
		c.logger.Info("reading published", "phase", PhasePublishing, "topic", c.topic)
	} else {
		c.logger.Warn("publishing reading failed", "phase", PhasePublishing, "topic", c.topic)
	}
	return ok
}

// teardown disconnects the broker session and the network, ignoring errors.
func (c *Controller) teardown() {
	_ = c.broker.Disconnect() //nolint:errcheck // Best effort on teardown
	_ = c.link.Disconnect()   //nolint:errcheck // Best effort on teardown
	c.state = Disconnected
}

// record hands the report to every recorder.
func (c *Controller) record(ctx context.Context, report CycleReport) {
	for _, r := range c.recorders {
		if err := r.RecordCycle(ctx, report); err != nil {
			c.logger.Warn("recording cycle failed", "error", err)
		}
	}
}
