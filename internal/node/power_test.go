package node

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPowerController_Continuous(t *testing.T) {
	sleeps := &sleepLog{}
	halter := &fakeHalter{}
	p := NewPowerController(10*time.Second, 58*time.Second, halter, sleeps.sleep)

	if err := p.ScheduleNextCycle(context.Background(), ModeContinuous); err != nil {
		t.Fatalf("ScheduleNextCycle() error = %v", err)
	}
	if len(sleeps.durations) != 1 || sleeps.durations[0] != 10*time.Second {
		t.Errorf("sleeps = %v, want [10s]", sleeps.durations)
	}
	if len(halter.calls) != 0 {
		t.Error("continuous mode must not halt")
	}
}

func TestPowerController_ContinuousCancelled(t *testing.T) {
	p := NewPowerController(time.Hour, 58*time.Second, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.ScheduleNextCycle(ctx, ModeContinuous); !errors.Is(err, context.Canceled) {
		t.Errorf("ScheduleNextCycle() error = %v, want context.Canceled", err)
	}
}

func TestPowerController_OneShot(t *testing.T) {
	halter := &fakeHalter{}
	p := NewPowerController(10*time.Second, 58*time.Second, halter, (&sleepLog{}).sleep)

	err := p.ScheduleNextCycle(context.Background(), ModeOneShot)
	if !errors.Is(err, ErrHaltReturned) {
		t.Errorf("ScheduleNextCycle() error = %v, want ErrHaltReturned from a returning halter", err)
	}
	if len(halter.calls) != 1 || halter.calls[0] != 58000*time.Millisecond {
		t.Errorf("halt calls = %v, want [58s]", halter.calls)
	}
}

func TestPowerController_OneShotHaltError(t *testing.T) {
	halter := &fakeHalter{err: errors.New("rtcwake: permission denied")}
	p := NewPowerController(10*time.Second, 58*time.Second, halter, nil)

	err := p.ScheduleNextCycle(context.Background(), ModeOneShot)
	if !errors.Is(err, ErrHaltReturned) || !errors.Is(err, halter.err) {
		t.Errorf("ScheduleNextCycle() error = %v, want ErrHaltReturned wrapping cause", err)
	}
}

func TestPowerController_OneShotWithoutHalter(t *testing.T) {
	p := NewPowerController(10*time.Second, 58*time.Second, nil, nil)

	if err := p.ScheduleNextCycle(context.Background(), ModeOneShot); !errors.Is(err, ErrHaltReturned) {
		t.Errorf("ScheduleNextCycle() error = %v, want ErrHaltReturned", err)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() on cancelled ctx error = %v, want context.Canceled", err)
	}
}
