// Package node implements the climate node's connection-and-publish lifecycle.
//
// One cycle joins the wireless network, opens a broker session, reads the
// AHT10 and publishes a rounded JSON record. The Controller runs cycles in
// one of two modes:
//
//   - Continuous: stay associated, publish every interval, retry after short
//     delays and fall back to a long cooldown on any unexpected fault. Never
//     terminates on its own.
//   - One-shot: run a single cycle, tear everything down, then enter a timed
//     low-power halt. The halt restarts the process, so nothing carries over
//     between cycles.
//
// # Error policy
//
// NetworkLink and BrokerClient turn every failure into a boolean and a log
// line. SensorClient returns its faults (wrapped in ErrSensor) and leaves the
// reaction to the Controller.
//
// # Collaborators
//
// Hardware and transport are reached through narrow interfaces (Radio,
// Sensor, Session, Halter), implemented in internal/hardware and
// internal/infrastructure/mqtt.
//
// # Concurrency
//
// The Controller and everything it owns run on a single goroutine. None of
// the types in this package are safe for concurrent use.
package node
