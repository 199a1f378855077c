package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/climate-node/internal/node"
)

const namespace = "climate_node"

// Recorder holds the node's Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	cycles      *prometheus.CounterVec
	published   prometheus.Counter
	faults      prometheus.Counter
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
	lastCycle   prometheus.Gauge
	duration    *prometheus.HistogramVec

	// last is the most recent report, served by /healthz.
	mu   sync.RWMutex
	last *node.CycleReport
}

// New creates a Recorder with Go runtime and process collectors registered
// next to the node's own.
func New(nodeID string) *Recorder {
	constLabels := prometheus.Labels{"node_id": nodeID}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cycles_total",
			Help:        "Lifecycle cycles by mode and outcome.",
			ConstLabels: constLabels,
		}, []string{"mode", "result"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "readings_published_total",
			Help:        "Readings handed to the broker.",
			ConstLabels: constLabels,
		}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "faults_total",
			Help:        "Cycles aborted by a sensor fault or recovered panic.",
			ConstLabels: constLabels,
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "temperature_celsius",
			Help:        "Last temperature reading, rounded as published.",
			ConstLabels: constLabels,
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "humidity_percent",
			Help:        "Last relative humidity reading, rounded as published.",
			ConstLabels: constLabels,
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_cycle_timestamp_seconds",
			Help:        "Start time of the most recent cycle.",
			ConstLabels: constLabels,
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "cycle_duration_seconds",
			Help:        "Time from cycle start to its outcome.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"mode"}),
	}

	r.registry.MustRegister(
		r.cycles, r.published, r.faults,
		r.temperature, r.humidity, r.lastCycle, r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordCycle updates the collectors from one report. It never fails.
func (r *Recorder) RecordCycle(_ context.Context, report node.CycleReport) error {
	mode := string(report.Mode)
	outcome := report.Outcome()

	r.cycles.WithLabelValues(mode, outcome.String()).Inc()
	r.duration.WithLabelValues(mode).Observe(report.Duration.Seconds())
	r.lastCycle.Set(float64(report.StartedAt.Unix()))

	if report.Published {
		r.published.Inc()
	}
	if outcome == node.StepFault {
		r.faults.Inc()
	}
	if p, ok := report.Payload(); ok {
		r.temperature.Set(p.Temperature)
		r.humidity.Set(p.Humidity)
	}

	r.mu.Lock()
	r.last = &report
	r.mu.Unlock()
	return nil
}

// lastReport returns the most recent report, if any.
func (r *Recorder) lastReport() (node.CycleReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.last == nil {
		return node.CycleReport{}, false
	}
	return *r.last, true
}
