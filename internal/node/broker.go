package node

import (
	"fmt"
)

// LinkStatus is the part of NetworkLink the broker client depends on.
type LinkStatus interface {
	IsConnected() bool
}

// BrokerClient manages the publish session to the message broker.
//
// It owns the only session handle. The handle is built lazily on first use
// and thrown away after any connect or publish failure, so the next attempt
// always rebuilds it from scratch.
type BrokerClient struct {
	newSession SessionFactory
	link       LinkStatus
	session    Session
	logger     Logger
}

// NewBrokerClient creates a broker client. The factory is called whenever a
// session has to be (re)built; link guards every publish.
func NewBrokerClient(factory SessionFactory, link LinkStatus, logger Logger) *BrokerClient {
	if logger == nil {
		logger = noopLogger{}
	}
	return &BrokerClient{
		newSession: factory,
		link:       link,
		logger:     logger,
	}
}

// Connect builds the session if needed and issues a transport connect.
// Any failure discards the session and returns false.
func (b *BrokerClient) Connect() bool {
	if b.session == nil {
		session, err := b.newSession()
		if err != nil {
			b.logger.Warn("MQTT session setup failed", "error", fmt.Errorf("%w: %w", ErrBroker, err))
			return false
		}
		b.session = session
	}

	b.logger.Info("connecting to MQTT broker")
	if err := b.session.Connect(); err != nil {
		b.logger.Warn("MQTT connection failed", "error", fmt.Errorf("%w: %w", ErrBroker, err))
		b.session = nil
		return false
	}

	b.logger.Info("MQTT connected")
	return true
}

// Publish encodes the payload and sends it on topic with at-most-once
// delivery. Without a session or without a network link it returns false
// and performs no I/O.
//
// A transport error leaves the session unusable: it is disconnected
// best-effort and discarded so the next cycle reconnects from scratch.
func (b *BrokerClient) Publish(topic string, payload Payload) bool {
	if b.session == nil {
		b.logger.Debug("publish skipped", "reason", ErrNoSession)
		return false
	}
	if !b.link.IsConnected() {
		b.logger.Debug("publish skipped", "reason", ErrLinkDown)
		return false
	}

	data, err := payload.Encode()
	if err != nil {
		b.logger.Error("MQTT publish failed", "topic", topic, "error", err)
		return false
	}

	if err := b.session.Publish(topic, data); err != nil {
		b.logger.Warn("MQTT publish failed", "topic", topic, "error", fmt.Errorf("%w: %w", ErrBroker, err))
		_ = b.session.Disconnect() //nolint:errcheck // Stale session, secondary error is noise
		b.session = nil
		return false
	}

	return true
}

// Disconnect closes and discards the session. It never fails the caller:
// it runs on teardown paths where the original cause matters more, so the
// returned error is for diagnostics only.
func (b *BrokerClient) Disconnect() error {
	if b.session == nil {
		return nil
	}

	err := b.session.Disconnect()
	b.session = nil
	if err != nil {
		err = fmt.Errorf("%w: disconnect: %w", ErrBroker, err)
		b.logger.Debug("MQTT disconnect failed", "error", err)
		return err
	}

	b.logger.Info("MQTT disconnected")
	return nil
}

// HasSession reports whether a session handle is held.
func (b *BrokerClient) HasSession() bool {
	return b.session != nil
}
