package wlan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

const (
	nmcli = "nmcli"

	// commandTimeout bounds a single nmcli invocation.
	commandTimeout = 15 * time.Second

	// statusTimeout bounds the status query, which is polled once per
	// poll interval while associating.
	statusTimeout = 2 * time.Second
)

// ErrCommandFailed is returned when nmcli exits non-zero or cannot run.
var ErrCommandFailed = errors.New("wlan: nmcli command failed")

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner runs the command with os/exec and folds stderr into the error.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // Fixed binary, arguments are not shell-interpreted
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}
		return out, err
	}
	return out, nil
}

// Radio is a NetworkManager-managed wireless interface.
type Radio struct {
	iface         string
	run           Runner
	timeout       time.Duration
	statusTimeout time.Duration
}

// New creates a Radio for the configured interface.
func New(cfg config.NetworkConfig) *Radio {
	return newRadio(cfg.Interface, execRunner)
}

func newRadio(iface string, run Runner) *Radio {
	return &Radio{iface: iface, run: run, timeout: commandTimeout, statusTimeout: statusTimeout}
}

// Activate switches the wireless radio on or off.
func (r *Radio) Activate(on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	_, err := r.nmcli(r.timeout, "radio wifi "+state, "radio", "wifi", state)
	return err
}

// Connect starts association with ssid and returns without waiting for it
// to complete. An empty passphrase joins an open network.
func (r *Radio) Connect(ssid, passphrase string) error {
	args := []string{"--wait", "0", "device", "wifi", "connect", ssid}
	if passphrase != "" {
		args = append(args, "password", passphrase)
	}
	args = append(args, "ifname", r.iface)

	_, err := r.nmcli(r.timeout, "device wifi connect", args...)
	return err
}

// IsConnected reports whether the interface is in the connected state.
// Any nmcli failure, including running past statusTimeout, reads as not
// connected.
func (r *Radio) IsConnected() bool {
	out, err := r.nmcli(r.statusTimeout, "device status", "-t", "-f", "DEVICE,STATE", "device", "status")
	if err != nil {
		return false
	}
	return deviceState(out, r.iface) == "connected"
}

// Disconnect takes the interface off its current network.
func (r *Radio) Disconnect() error {
	_, err := r.nmcli(r.timeout, "device disconnect", "device", "disconnect", r.iface)
	return err
}

// AddressInfo describes the IPv4 configuration of the interface.
func (r *Radio) AddressInfo() (string, error) {
	out, err := r.nmcli(r.timeout, "device show", "-g", "IP4.ADDRESS,IP4.GATEWAY,IP4.DNS", "device", "show", r.iface)
	if err != nil {
		return "", err
	}
	return formatAddressInfo(out), nil
}

// nmcli runs one command. op names the operation in errors so that
// arguments, which may include the passphrase, are never echoed.
func (r *Radio) nmcli(timeout time.Duration, op string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := r.run(ctx, nmcli, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCommandFailed, op, err)
	}
	return out, nil
}

// deviceState finds iface in terse "DEVICE:STATE" output.
func deviceState(out []byte, iface string) string {
	for _, line := range strings.Split(string(out), "\n") {
		dev, state, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && dev == iface {
			return state
		}
	}
	return ""
}

// formatAddressInfo turns the three -g lines into a single log-friendly line.
func formatAddressInfo(out []byte) string {
	labels := []string{"address", "gateway", "dns"}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")

	parts := make([]string, 0, len(labels))
	for i, label := range labels {
		value := ""
		if i < len(lines) {
			value = strings.ReplaceAll(strings.TrimSpace(lines[i]), " | ", ",")
		}
		if value == "" {
			value = "-"
		}
		parts = append(parts, label+"="+value)
	}
	return strings.Join(parts, " ")
}
