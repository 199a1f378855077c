package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/climate-node/internal/node"
)

func publishedReport() node.CycleReport {
	return node.CycleReport{
		Mode:      node.ModeContinuous,
		StartedAt: time.Unix(1772366400, 0),
		Duration:  800 * time.Millisecond,
		NetworkUp: true,
		BrokerUp:  true,
		Reading:   &node.Reading{Temperature: 21.5, Humidity: 47.333},
		Published: true,
		Result:    node.StepPublished,
	}
}

func TestRecordCycle_Published(t *testing.T) {
	r := New("esp32-s3")

	if err := r.RecordCycle(context.Background(), publishedReport()); err != nil {
		t.Fatalf("RecordCycle() error = %v", err)
	}

	if got := testutil.ToFloat64(r.cycles.WithLabelValues("continuous", "published")); got != 1 {
		t.Errorf("cycles{continuous,published} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.published); got != 1 {
		t.Errorf("published = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.faults); got != 0 {
		t.Errorf("faults = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.temperature); got != 21.5 {
		t.Errorf("temperature = %v, want 21.5", got)
	}
	if got := testutil.ToFloat64(r.humidity); got != 47.33 {
		t.Errorf("humidity = %v, want 47.33", got)
	}
	if got := testutil.ToFloat64(r.lastCycle); got != 1772366400 {
		t.Errorf("lastCycle = %v, want 1772366400", got)
	}
}

func TestRecordCycle_FaultKeepsLastReading(t *testing.T) {
	r := New("esp32-s3")
	ctx := context.Background()

	_ = r.RecordCycle(ctx, publishedReport())
	_ = r.RecordCycle(ctx, node.CycleReport{
		Mode:      node.ModeContinuous,
		StartedAt: time.Unix(1772366470, 0),
		NetworkUp: true,
		BrokerUp:  true,
		Result:    node.StepFault,
		Fault:     node.ErrSensor,
	})
	_ = r.RecordCycle(ctx, node.CycleReport{Mode: node.ModeOneShot, StartedAt: time.Unix(1772366530, 0)})

	if got := testutil.ToFloat64(r.faults); got != 1 {
		t.Errorf("faults = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.cycles.WithLabelValues("oneshot", "network_down")); got != 1 {
		t.Errorf("cycles{oneshot,network_down} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.temperature); got != 21.5 {
		t.Errorf("temperature = %v, want last good reading 21.5", got)
	}
	if got := testutil.ToFloat64(r.published); got != 1 {
		t.Errorf("published = %v, want 1", got)
	}
}

