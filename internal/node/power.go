package node

import (
	"context"
	"fmt"
	"time"
)

// PowerController schedules the next cycle.
type PowerController struct {
	interval  time.Duration
	deepSleep time.Duration
	sleep     SleepFunc
	halter    Halter
}

// NewPowerController creates a power controller. halter may be nil when the
// node only runs in continuous mode.
func NewPowerController(interval, deepSleep time.Duration, halter Halter, sleep SleepFunc) *PowerController {
	if sleep == nil {
		sleep = Sleep
	}
	return &PowerController{
		interval:  interval,
		deepSleep: deepSleep,
		sleep:     sleep,
		halter:    halter,
	}
}

// ScheduleNextCycle waits for the next cycle.
//
// In continuous mode it blocks for the sample interval and returns. In
// one-shot mode it enters the low-power halt, which does not return on
// success; any return from the halt is reported as an error.
func (p *PowerController) ScheduleNextCycle(ctx context.Context, mode Mode) error {
	switch mode {
	case ModeContinuous:
		return p.sleep(ctx, p.interval)
	case ModeOneShot:
		if p.halter == nil {
			return fmt.Errorf("%w: no halter configured", ErrHaltReturned)
		}
		if err := p.halter.Halt(p.deepSleep); err != nil {
			return fmt.Errorf("%w: %w", ErrHaltReturned, err)
		}
		return ErrHaltReturned
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

// DeepSleep returns the fixed halt duration.
func (p *PowerController) DeepSleep() time.Duration {
	return p.deepSleep
}
