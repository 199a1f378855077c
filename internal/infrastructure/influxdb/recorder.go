package influxdb

import (
	"context"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/climate-node/internal/node"
)

// measurement is the InfluxDB measurement holding one point per cycle.
const measurement = "climate"

// RecordCycle writes the cycle as a point in the climate measurement.
//
// The write is batched like any other; one-shot cycles are flushed
// immediately because the process halts right after.
//
// Returns:
//   - error: ErrNotConnected after Close, otherwise nil (write errors
//     are delivered to the SetOnError callback)
func (c *Client) RecordCycle(_ context.Context, report node.CycleReport) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.writeAPI.WritePoint(pointFromReport(c.nodeID, report))

	if report.Mode == node.ModeOneShot {
		c.writeAPI.Flush()
	}
	return nil
}

// pointFromReport builds the point for one cycle. The reading is stored with
// the same two-decimal rounding as the published payload.
//
//	climate,mode=continuous,node_id=esp32-s3,result=published temperature=21.5,humidity=47.33,published=true,network_up=true,broker_up=true
func pointFromReport(nodeID string, report node.CycleReport) *write.Point {
	tags := map[string]string{
		"node_id": nodeID,
		"mode":    string(report.Mode),
		"result":  report.Outcome().String(),
	}

	fields := map[string]interface{}{
		"published":   report.Published,
		"network_up":  report.NetworkUp,
		"broker_up":   report.BrokerUp,
		"duration_ms": report.Duration.Milliseconds(),
	}
	if p, ok := report.Payload(); ok {
		fields["temperature"] = p.Temperature
		fields["humidity"] = p.Humidity
	}
	if report.Fault != nil {
		fields["fault"] = report.Fault.Error()
	}

	return write.NewPoint(measurement, tags, fields, report.StartedAt)
}
