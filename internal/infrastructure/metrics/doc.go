// Package metrics exposes lifecycle counters and the latest reading in the
// Prometheus text format.
//
// A Recorder is a node.Recorder: it updates its collectors from every cycle
// report. Serve runs the diagnostics listener until its context ends: a chi
// router with /metrics, /healthz and, when a journal is attached, /cycles.
// It is only started in continuous mode, where the process lives long
// enough to be scraped.
//
// All collectors live in a private registry, so tests can create as many
// Recorders as they like.
package metrics
