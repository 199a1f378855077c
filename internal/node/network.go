package node

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// defaultPollInterval is the spacing of association status polls.
const defaultPollInterval = time.Second

// Credentials are the wireless network credentials.
type Credentials struct {
	SSID       string
	Passphrase string
}

// NetworkLink manages the association state of the single radio.
type NetworkLink struct {
	radio        Radio
	creds        Credentials
	pollInterval time.Duration
	sleep        SleepFunc
	logger       Logger
}

// LinkOptions configures a NetworkLink. Zero values take defaults.
type LinkOptions struct {
	PollInterval time.Duration
	Sleep        SleepFunc
	Logger       Logger
}

// NewNetworkLink creates a link for the given radio and credentials.
func NewNetworkLink(radio Radio, creds Credentials, opts LinkOptions) *NetworkLink {
	l := &NetworkLink{
		radio:        radio,
		creds:        creds,
		pollInterval: opts.PollInterval,
		sleep:        opts.Sleep,
		logger:       opts.Logger,
	}
	if l.pollInterval <= 0 {
		l.pollInterval = defaultPollInterval
	}
	if l.sleep == nil {
		l.sleep = Sleep
	}
	if l.logger == nil {
		l.logger = noopLogger{}
	}
	return l
}

// Connect activates the radio, starts association and polls the status once
// per poll interval, at most attempts times.
//
// On failure the radio is powered off again so a half-associated radio does
// not drain the battery. Errors never leave this method; they are logged and
// reported as false.
func (l *NetworkLink) Connect(ctx context.Context, attempts int) bool {
	l.logger.Info("connecting to wireless network", "ssid", l.creds.SSID)

	err := l.associate(ctx, attempts)
	if err == nil {
		l.logAddress()
		return true
	}

	l.logger.Warn("wireless connection failed", "ssid", l.creds.SSID, "error", err)
	if offErr := l.radio.Activate(false); offErr != nil {
		l.logger.Debug("radio deactivation failed", "error", offErr)
	}
	return false
}

// associate runs the activate/connect/poll sequence.
func (l *NetworkLink) associate(ctx context.Context, attempts int) error {
	if err := l.radio.Activate(true); err != nil {
		return fmt.Errorf("%w: activating radio: %w", ErrNetwork, err)
	}

	if l.radio.IsConnected() {
		return nil
	}

	if err := l.radio.Connect(l.creds.SSID, l.creds.Passphrase); err != nil {
		return fmt.Errorf("%w: starting association: %w", ErrNetwork, err)
	}

	for polls := 0; polls < attempts && !l.radio.IsConnected(); polls++ {
		if err := l.sleep(ctx, l.pollInterval); err != nil {
			return fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		l.logger.Debug("waiting for association", "attempt", polls+1, "max_attempts", attempts)
	}

	if !l.radio.IsConnected() {
		return fmt.Errorf("%w: not associated after %d attempts", ErrNetwork, attempts)
	}
	return nil
}

// logAddress logs the assigned address. Failure here is not a link failure.
func (l *NetworkLink) logAddress() {
	info, err := l.radio.AddressInfo()
	if err != nil {
		l.logger.Info("wireless network connected", "ssid", l.creds.SSID)
		return
	}
	l.logger.Info("wireless network connected", "ssid", l.creds.SSID, "address", info)
}

// Disconnect leaves the network if associated and always powers the radio
// off. It is safe to call when already disconnected.
//
// The returned error is informational: callers on teardown paths discard it.
func (l *NetworkLink) Disconnect() error {
	var errs []error
	if l.radio.IsConnected() {
		if err := l.radio.Disconnect(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := l.radio.Activate(false); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		err := fmt.Errorf("%w: disconnect: %w", ErrNetwork, errors.Join(errs...))
		l.logger.Debug("wireless disconnect incomplete", "error", err)
		return err
	}

	l.logger.Info("wireless network disconnected and radio off")
	return nil
}

// IsConnected reports the association state without blocking.
func (l *NetworkLink) IsConnected() bool {
	return l.radio.IsConnected()
}
