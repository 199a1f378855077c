package node

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestLink(radio *fakeRadio, sleeps *sleepLog) *NetworkLink {
	return NewNetworkLink(radio, Credentials{SSID: "BZTG-IoT", Passphrase: "pw"}, LinkOptions{
		Sleep: sleeps.sleep,
	})
}

func TestNetworkLink_ConnectImmediate(t *testing.T) {
	radio := &fakeRadio{}
	sleeps := &sleepLog{}
	link := newTestLink(radio, sleeps)

	if !link.Connect(context.Background(), 20) {
		t.Fatal("Connect() = false, want true")
	}
	if !radio.active {
		t.Error("radio should be active after connect")
	}
	if radio.connectCalls != 1 {
		t.Errorf("radio.Connect called %d times, want 1", radio.connectCalls)
	}
	if len(sleeps.durations) != 0 {
		t.Errorf("slept %d times, want 0", len(sleeps.durations))
	}
}

func TestNetworkLink_ConnectPollsOncePerSecond(t *testing.T) {
	radio := &fakeRadio{connectAfterPolls: 3}
	sleeps := &sleepLog{}
	link := newTestLink(radio, sleeps)

	if !link.Connect(context.Background(), 20) {
		t.Fatal("Connect() = false, want true")
	}
	if len(sleeps.durations) != 3 {
		t.Fatalf("slept %d times, want 3", len(sleeps.durations))
	}
	for _, d := range sleeps.durations {
		if d != time.Second {
			t.Errorf("poll interval = %v, want 1s", d)
		}
	}
}

func TestNetworkLink_ConnectAlreadyAssociated(t *testing.T) {
	radio := &fakeRadio{connected: true}
	link := newTestLink(radio, &sleepLog{})

	if !link.Connect(context.Background(), 20) {
		t.Fatal("Connect() = false, want true")
	}
	if radio.connectCalls != 0 {
		t.Errorf("radio.Connect called %d times on an associated radio, want 0", radio.connectCalls)
	}
}

func TestNetworkLink_ConnectExhaustsAttempts(t *testing.T) {
	for _, attempts := range []int{15, 20} {
		radio := &fakeRadio{neverConnects: true}
		sleeps := &sleepLog{}
		link := newTestLink(radio, sleeps)

		if link.Connect(context.Background(), attempts) {
			t.Fatalf("Connect(%d) = true, want false", attempts)
		}
		if len(sleeps.durations) != attempts {
			t.Errorf("Connect(%d) polled %d times", attempts, len(sleeps.durations))
		}
		if last, ok := radio.lastActivate(); !ok || last {
			t.Errorf("radio must be powered off after failed connect, last Activate = %v", last)
		}
		if radio.active {
			t.Error("radio still active after failed connect")
		}
	}
}

func TestNetworkLink_ConnectErrorsBecomeFalse(t *testing.T) {
	tests := []struct {
		name  string
		radio *fakeRadio
	}{
		{name: "activate fails", radio: &fakeRadio{activateErr: errors.New("rfkill")}},
		{name: "connect fails", radio: &fakeRadio{connectErr: errors.New("no such ssid")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := newTestLink(tt.radio, &sleepLog{})
			if link.Connect(context.Background(), 20) {
				t.Error("Connect() = true, want false")
			}
			if last, _ := tt.radio.lastActivate(); last {
				t.Error("radio must be powered off after failure")
			}
		})
	}
}

func TestNetworkLink_ConnectCancelled(t *testing.T) {
	radio := &fakeRadio{neverConnects: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	link := newTestLink(radio, &sleepLog{})
	if link.Connect(ctx, 20) {
		t.Error("Connect() with cancelled context = true, want false")
	}
}

func TestNetworkLink_DisconnectIdempotent(t *testing.T) {
	radio := &fakeRadio{}
	link := newTestLink(radio, &sleepLog{})

	for i := 0; i < 3; i++ {
		if err := link.Disconnect(); err != nil {
			t.Fatalf("Disconnect() #%d error = %v", i+1, err)
		}
	}
	if radio.disconnectCalls != 0 {
		t.Errorf("radio.Disconnect called %d times while never associated, want 0", radio.disconnectCalls)
	}
	if radio.active || radio.connected {
		t.Error("state changed by disconnect on an idle radio")
	}
}

func TestNetworkLink_DisconnectAssociated(t *testing.T) {
	radio := &fakeRadio{}
	link := newTestLink(radio, &sleepLog{})

	if !link.Connect(context.Background(), 20) {
		t.Fatal("Connect() = false")
	}
	if err := link.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if radio.disconnectCalls != 1 {
		t.Errorf("radio.Disconnect called %d times, want 1", radio.disconnectCalls)
	}
	if radio.active {
		t.Error("radio should be off after disconnect")
	}
	if link.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
}

func TestNetworkLink_DisconnectReportsRadioError(t *testing.T) {
	radio := &fakeRadio{connected: true, disconnectErr: errors.New("busy")}
	link := newTestLink(radio, &sleepLog{})

	err := link.Disconnect()
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Disconnect() error = %v, want ErrNetwork", err)
	}
	if radio.active {
		t.Error("radio must be powered off even when disassociation fails")
	}
}
