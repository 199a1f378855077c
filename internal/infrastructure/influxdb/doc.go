// Package influxdb mirrors cycle readings into a local InfluxDB bucket.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health monitoring. The mirror
// is diagnostic: a node keeps publishing over MQTT whether or not InfluxDB is
// reachable.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Node.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// client is a node.Recorder
//	opts.Recorders = append(opts.Recorders, client)
//
// # Data Layout
//
// One point per cycle in the "climate" measurement, tagged with node_id,
// mode and result. Fields carry the rounded temperature
// and humidity when a reading was taken, plus the outcome flags.
//
// # Error Handling
//
// Write errors are delivered asynchronously to the SetOnError callback.
// Connection and health check errors are returned directly.
package influxdb
