package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Session wraps one paho.mqtt.golang client for the lifetime of a single
// broker connection.
//
// A Session is never reconnected after a failure. The caller discards it and
// asks NewSession for a new one, so no stale paho state survives.
//
// Thread Safety:
//   - Not safe for concurrent use; the lifecycle controller is the only caller.
type Session struct {
	client         pahomqtt.Client
	qos            byte
	connectTimeout time.Duration
	publishTimeout time.Duration
}

// NewSession builds an unconnected session from the MQTT configuration.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//
// Returns:
//   - *Session: Session ready for Connect
//   - error: If the configured QoS is invalid
func NewSession(cfg config.MQTTConfig) (*Session, error) {
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	return newSession(pahomqtt.NewClient(buildClientOptions(cfg)), cfg), nil
}

// newSession wires a session around an existing paho client.
func newSession(client pahomqtt.Client, cfg config.MQTTConfig) *Session {
	return &Session{
		client:         client,
		qos:            byte(cfg.QoS), //nolint:gosec // Range checked in NewSession and config.Validate
		connectTimeout: connectTimeout(cfg),
		publishTimeout: publishTimeout(cfg),
	}
}

// Connect opens the broker connection and waits for the CONNACK.
//
// On timeout the pending attempt is aborted, so a late CONNACK cannot leave
// a second connection under the same client id once the session is rebuilt.
//
// Returns:
//   - error: ErrConnectionFailed on timeout or broker refusal
func (s *Session) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(s.connectTimeout) {
		s.client.Disconnect(0)
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, s.connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// Publish sends payload to topic with the configured QoS, not retained.
//
// With QoS 0 (the default) the token completes once the packet is handed
// to the network; there is no broker acknowledgment and no redelivery.
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (s *Session) Publish(topic string, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !s.client.IsConnected() {
		return ErrNotConnected
	}

	token := s.client.Publish(topic, s.qos, false, payload)
	if !token.WaitTimeout(s.publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, s.publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Disconnect closes the connection after a short quiesce for in-flight
// packets. Disconnecting a session that is not connected reports
// ErrNotConnected and has no other effect.
func (s *Session) Disconnect() error {
	if !s.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	s.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// IsConnected returns the paho connection state.
func (s *Session) IsConnected() bool {
	return s.client.IsConnected()
}
