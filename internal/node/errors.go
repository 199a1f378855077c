package node

import "errors"

// Error taxonomy for the lifecycle.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNetwork covers association timeouts and radio failures.
	ErrNetwork = errors.New("node: network unavailable")

	// ErrBroker covers broker connect, publish, and disconnect failures.
	ErrBroker = errors.New("node: broker unavailable")

	// ErrSensor covers bus read failures. It is the only class that
	// propagates out of its component.
	ErrSensor = errors.New("node: sensor read failed")

	// ErrNoSession is reported when publishing without a broker session.
	ErrNoSession = errors.New("node: no broker session")

	// ErrLinkDown is reported when publishing while the network is down.
	ErrLinkDown = errors.New("node: network link down")

	// ErrPanic wraps a recovered panic from a collaborator.
	ErrPanic = errors.New("node: unexpected fault")

	// ErrHaltReturned is reported when the low-power halt returned control.
	ErrHaltReturned = errors.New("node: low-power halt returned")
)
