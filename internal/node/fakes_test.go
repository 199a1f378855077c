package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeRadio simulates the wireless stack. It associates after
// connectAfterPolls status checks following Connect, or never when
// neverConnects is set.
type fakeRadio struct {
	active            bool
	connected         bool
	connecting        bool
	neverConnects     bool
	connectAfterPolls int
	polls             int

	activateErr   error
	connectErr    error
	disconnectErr error

	activateCalls   []bool
	connectCalls    int
	disconnectCalls int
}

func (r *fakeRadio) Activate(on bool) error {
	r.activateCalls = append(r.activateCalls, on)
	if r.activateErr != nil && on {
		return r.activateErr
	}
	r.active = on
	if !on {
		r.connected = false
		r.connecting = false
	}
	return nil
}

func (r *fakeRadio) Connect(_, _ string) error {
	r.connectCalls++
	if r.connectErr != nil {
		return r.connectErr
	}
	r.connecting = true
	r.polls = 0
	return nil
}

func (r *fakeRadio) IsConnected() bool {
	if r.connecting && !r.connected && !r.neverConnects {
		r.polls++
		if r.polls > r.connectAfterPolls {
			r.connected = true
		}
	}
	return r.connected
}

func (r *fakeRadio) Disconnect() error {
	r.disconnectCalls++
	r.connected = false
	r.connecting = false
	return r.disconnectErr
}

func (r *fakeRadio) AddressInfo() (string, error) {
	return "192.168.1.50/24", nil
}

// lastActivate returns the most recent Activate argument.
func (r *fakeRadio) lastActivate() (bool, bool) {
	if len(r.activateCalls) == 0 {
		return false, false
	}
	return r.activateCalls[len(r.activateCalls)-1], true
}

// fakeSensor returns fixed values or errors.
type fakeSensor struct {
	humidity    float64
	temperature float64
	err         error
	panicMsg    string
	reads       int
}

func (s *fakeSensor) Humidity() (float64, error) {
	s.reads++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return 0, s.err
	}
	return s.humidity, nil
}

func (s *fakeSensor) Temperature() (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.temperature, nil
}

// publishedMessage is one message seen by a fakeSession.
type publishedMessage struct {
	topic   string
	payload string
}

// fakeSession records calls and fails on demand.
type fakeSession struct {
	id            int
	connectErr    error
	publishErr    error
	disconnectErr error

	connects    int
	disconnects int
	published   []publishedMessage
}

func (s *fakeSession) Connect() error {
	s.connects++
	return s.connectErr
}

func (s *fakeSession) Publish(topic string, payload []byte) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.published = append(s.published, publishedMessage{topic: topic, payload: string(payload)})
	return nil
}

func (s *fakeSession) Disconnect() error {
	s.disconnects++
	return s.disconnectErr
}

// sessionFactory hands out fakeSessions and remembers them. configure is
// applied to each new session before it is returned.
type sessionFactory struct {
	sessions  []*fakeSession
	configure func(s *fakeSession)
	err       error
}

func (f *sessionFactory) build() (Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSession{id: len(f.sessions) + 1}
	if f.configure != nil {
		f.configure(s)
	}
	f.sessions = append(f.sessions, s)
	return s, nil
}

// published collects every message across all sessions.
func (f *sessionFactory) published() []publishedMessage {
	var out []publishedMessage
	for _, s := range f.sessions {
		out = append(out, s.published...)
	}
	return out
}

// fakeHalter records halt requests and returns instead of halting.
type fakeHalter struct {
	calls []time.Duration
	err   error
}

func (h *fakeHalter) Halt(d time.Duration) error {
	h.calls = append(h.calls, d)
	return h.err
}

// logEntry is one captured log call.
type logEntry struct {
	level string
	msg   string
	args  []any
}

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

// count returns how many entries carry msg.
func (l *recordingLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.msg == msg {
			n++
		}
	}
	return n
}

// fakeRecorder collects cycle reports.
type fakeRecorder struct {
	reports []CycleReport
	err     error
}

func (r *fakeRecorder) RecordCycle(_ context.Context, report CycleReport) error {
	r.reports = append(r.reports, report)
	return r.err
}

// sleepLog records requested sleeps without blocking. When cancelAfter is
// positive, the given cancel func runs once that many sleeps of cancelOn
// duration have been seen.
type sleepLog struct {
	durations   []time.Duration
	cancelOn    time.Duration
	cancelAfter int
	cancel      context.CancelFunc
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	if s.cancelAfter > 0 && s.countOf(s.cancelOn) >= s.cancelAfter && s.cancel != nil {
		s.cancel()
	}
	return ctx.Err()
}

func (s *sleepLog) countOf(d time.Duration) int {
	n := 0
	for _, got := range s.durations {
		if got == d {
			n++
		}
	}
	return n
}

// rig wires a controller around fakes.
type rig struct {
	radio    *fakeRadio
	sensor   *fakeSensor
	factory  *sessionFactory
	halter   *fakeHalter
	sleeps   *sleepLog
	logger   *recordingLogger
	recorder *fakeRecorder

	link       *NetworkLink
	broker     *BrokerClient
	controller *Controller
}

const testTopic = "esp32/AHT10"

func newRig() *rig {
	r := &rig{
		radio:    &fakeRadio{},
		sensor:   &fakeSensor{temperature: 21.50, humidity: 47.333},
		factory:  &sessionFactory{},
		halter:   &fakeHalter{},
		sleeps:   &sleepLog{},
		logger:   &recordingLogger{},
		recorder: &fakeRecorder{},
	}

	timings := DefaultTimings()
	r.link = NewNetworkLink(r.radio, Credentials{SSID: "BZTG-IoT", Passphrase: "pw"}, LinkOptions{
		Sleep:  r.sleeps.sleep,
		Logger: r.logger,
	})
	r.broker = NewBrokerClient(r.factory.build, r.link, r.logger)
	power := NewPowerController(timings.Interval, timings.DeepSleep, r.halter, r.sleeps.sleep)

	c, err := NewController(Options{
		Link:      r.link,
		Broker:    r.broker,
		Sensor:    NewSensorClient(r.sensor),
		Power:     power,
		Topic:     testTopic,
		Timings:   timings,
		Sleep:     r.sleeps.sleep,
		Logger:    r.logger,
		Recorders: []Recorder{r.recorder},
	})
	if err != nil {
		panic(fmt.Sprintf("NewController: %v", err))
	}
	r.controller = c
	return r
}

var errBus = errors.New("i2c: remote I/O error")
