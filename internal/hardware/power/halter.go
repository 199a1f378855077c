package power

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// Domain errors for the power package.
var (
	// ErrSuspendFailed is returned when rtcwake fails.
	ErrSuspendFailed = errors.New("power: suspend failed")

	// ErrRestartFailed is returned when the post-wake re-exec fails.
	ErrRestartFailed = errors.New("power: restart after wake failed")
)

// suspendGrace is added to the halt duration when bounding rtcwake.
const suspendGrace = 30 * time.Second

// Halter suspends via rtcwake and restarts the process on wake.
type Halter struct {
	rtcwake string
	mode    string

	run  func(ctx context.Context, name string, args ...string) error
	exec func() error
}

// New creates a Halter from the power configuration.
func New(cfg config.PowerConfig) *Halter {
	return &Halter{
		rtcwake: cfg.RTCWake,
		mode:    cfg.SuspendMode,
		run:     runCommand,
		exec:    reexec,
	}
}

// Halt suspends for d and then restarts the process. On success it does not
// return.
func (h *Halter) Halt(d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d+suspendGrace)
	defer cancel()

	if err := h.run(ctx, h.rtcwake, h.args(d)...); err != nil {
		return fmt.Errorf("%w: %w", ErrSuspendFailed, err)
	}

	if err := h.exec(); err != nil {
		return fmt.Errorf("%w: %w", ErrRestartFailed, err)
	}
	return nil
}

// args builds the rtcwake arguments; rtcwake only takes whole seconds.
func (h *Halter) args(d time.Duration) []string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return []string{"-m", h.mode, "-s", strconv.FormatInt(secs, 10)}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec // Binary path comes from validated config
	if err != nil && len(out) > 0 {
		return fmt.Errorf("%w: %s", err, out)
	}
	return err
}

// reexec replaces the current process image with a fresh one.
func reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	return unix.Exec(exe, os.Args, os.Environ())
}
