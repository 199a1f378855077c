package node

import "time"

// CycleReport summarises one cycle for recorders.
type CycleReport struct {
	Mode      Mode
	StartedAt time.Time
	Duration  time.Duration

	NetworkUp bool
	BrokerUp  bool

	// Reading is nil when the cycle never got as far as the sensor, or the
	// read failed.
	Reading   *Reading
	Published bool

	// Result is only meaningful in continuous mode.
	Result StepResult

	// Fault is the sensor error or recovered panic that aborted the cycle.
	Fault error
}

// Payload returns the published record for the cycle's reading.
func (r CycleReport) Payload() (Payload, bool) {
	if r.Reading == nil {
		return Payload{}, false
	}
	return NewPayload(*r.Reading), true
}

// Outcome classifies the cycle with the continuous-mode result vocabulary.
// One-shot cycles have no Result of their own, so theirs is derived from
// how far the cycle got.
func (r CycleReport) Outcome() StepResult {
	if r.Mode == ModeContinuous {
		return r.Result
	}

	switch {
	case !r.NetworkUp:
		return StepNetworkDown
	case !r.BrokerUp:
		return StepBrokerDown
	case r.Fault != nil:
		return StepFault
	case r.Published:
		return StepPublished
	default:
		return StepPublishFailed
	}
}
