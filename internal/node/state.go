package node

// Mode selects how the Controller schedules cycles.
type Mode string

const (
	// ModeContinuous keeps the node online and samples on an interval.
	ModeContinuous Mode = "continuous"

	// ModeOneShot samples once per power cycle, then halts.
	ModeOneShot Mode = "oneshot"
)

// ConnectionState is the Controller's view of the connection stack.
//
// It only moves forward on success and collapses to Disconnected on any
// failure; there is no partially connected state.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	NetworkUp
	BrokerUp
)

// String returns the state name for log lines.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case NetworkUp:
		return "network_up"
	case BrokerUp:
		return "broker_up"
	default:
		return "unknown"
	}
}

// Phase names a step of the lifecycle. It is only used for logging.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseNetworkConnecting Phase = "network_connecting"
	PhaseBrokerConnecting  Phase = "broker_connecting"
	PhasePublishing        Phase = "publishing"
	PhaseTeardown          Phase = "teardown"
	PhaseDone              Phase = "done"
)

// StepResult reports how a continuous-mode iteration ended and therefore
// which wait precedes the next one.
type StepResult int

const (
	// StepPublished means the reading went out; wait the sample interval.
	StepPublished StepResult = iota

	// StepPublishFailed means the publish failed; still wait the interval.
	StepPublishFailed

	// StepNetworkDown means association failed; wait the retry delay.
	StepNetworkDown

	// StepBrokerDown means the broker connect failed; wait the retry delay.
	StepBrokerDown

	// StepFault means an unexpected fault reset the session; wait the cooldown.
	StepFault
)

// String returns the result name for log lines and metrics labels.
func (r StepResult) String() string {
	switch r {
	case StepPublished:
		return "published"
	case StepPublishFailed:
		return "publish_failed"
	case StepNetworkDown:
		return "network_down"
	case StepBrokerDown:
		return "broker_down"
	case StepFault:
		return "fault"
	default:
		return "unknown"
	}
}
