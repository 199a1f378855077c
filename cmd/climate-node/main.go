// Climate Node - temperature and humidity telemetry agent
//
// This is the main entry point for a node that reads an AHT10 sensor and
// publishes each reading to an MQTT broker over a wireless link. It runs in
// one of two modes:
//   - continuous: stay online and publish on a fixed interval
//   - oneshot:    connect, publish once, then halt in low power until the
//     RTC alarm restarts the process
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/climate-node/internal/hardware/aht10"
	"github.com/nerrad567/climate-node/internal/hardware/power"
	"github.com/nerrad567/climate-node/internal/hardware/wlan"
	"github.com/nerrad567/climate-node/internal/infrastructure/config"
	"github.com/nerrad567/climate-node/internal/infrastructure/database"
	"github.com/nerrad567/climate-node/internal/infrastructure/influxdb"
	"github.com/nerrad567/climate-node/internal/infrastructure/logging"
	"github.com/nerrad567/climate-node/internal/infrastructure/metrics"
	"github.com/nerrad567/climate-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/climate-node/internal/journal"
	"github.com/nerrad567/climate-node/internal/node"
	"github.com/nerrad567/climate-node/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=0.3.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "0.3.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// healthCheckTimeout bounds the startup recorder health check.
const healthCheckTimeout = 5 * time.Second

func main() {
	// Cancel on Ctrl+C or SIGTERM; continuous mode tears down and exits cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting climate node",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded",
		"path", configPath,
		"mode", cfg.Node.Mode,
		"broker", cfg.MQTT.BrokerAddress(),
		"topic", cfg.MQTT.Topic,
	)

	log, err = logging.New(cfg.Logging, version)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	defer log.Close() //nolint:errcheck // Nothing left to log to

	recorders, closeRecorders := buildRecorders(ctx, cfg, log)
	defer closeRecorders()

	if err := recorders.healthCheck(ctx); err != nil {
		log.Warn("recorder health check failed", "error", err)
	}

	sensor, closeSensor := openSensor(cfg.Sensor, log)
	defer closeSensor()

	controller, err := buildController(cfg, log, sensor, recorders.all())
	if err != nil {
		return fmt.Errorf("building controller: %w", err)
	}

	if cfg.IsOneShot() {
		// Deferred closes do not run on a successful halt, so recorders
		// flush inside RecordCycle.
		return controller.RunOneShot(ctx)
	}

	if recorders.metrics != nil {
		opts := metrics.ServerOptions{Addr: cfg.Metrics.Listen, Version: version}
		if recorders.journal != nil {
			opts.History = recorders.journal
		}
		go func() {
			if serveErr := recorders.metrics.Serve(ctx, opts, log); serveErr != nil {
				log.Error("diagnostics listener failed", "error", serveErr)
			}
		}()
	}

	if err := controller.Run(ctx); err != nil {
		return err
	}
	log.Info("climate node stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CLIMATENODE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CLIMATENODE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildController wires the hardware adapters and the broker session
// factory into a lifecycle controller.
func buildController(cfg *config.Config, log *logging.Logger, sensor node.Sensor, recorders []node.Recorder) (*node.Controller, error) {
	link := node.NewNetworkLink(
		wlan.New(cfg.Network),
		node.Credentials{SSID: cfg.Network.SSID, Passphrase: cfg.Network.Passphrase},
		node.LinkOptions{PollInterval: cfg.Network.PollInterval, Logger: log},
	)

	broker := node.NewBrokerClient(sessionFactory(cfg.MQTT), link, log)

	powerCtl := node.NewPowerController(
		cfg.Schedule.Interval,
		cfg.Schedule.DeepSleep,
		power.New(cfg.Power),
		nil,
	)

	return node.NewController(node.Options{
		Link:      link,
		Broker:    broker,
		Sensor:    node.NewSensorClient(sensor),
		Power:     powerCtl,
		Topic:     cfg.MQTT.Topic,
		Timings:   timings(cfg),
		Logger:    log,
		Recorders: recorders,
	})
}

// sessionFactory builds a fresh paho session for every broker connect.
func sessionFactory(cfg config.MQTTConfig) node.SessionFactory {
	return func() (node.Session, error) {
		s, err := mqtt.NewSession(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// timings copies the schedule and attempt bounds out of the config.
func timings(cfg *config.Config) node.Timings {
	return node.Timings{
		Interval:           cfg.Schedule.Interval,
		RetryDelay:         cfg.Schedule.RetryDelay,
		FaultCooldown:      cfg.Schedule.FaultCooldown,
		FlushDelay:         cfg.Schedule.FlushDelay,
		DeepSleep:          cfg.Schedule.DeepSleep,
		ContinuousAttempts: cfg.Network.ContinuousAttempts,
		OneShotAttempts:    cfg.Network.OneShotAttempts,
	}
}

// openSensor opens the AHT10. If the bus is unavailable the node keeps
// running with a sensor that fails every read, so each cycle takes the
// sensor-fault path instead of the process exiting.
func openSensor(cfg config.SensorConfig, log *logging.Logger) (node.Sensor, func()) {
	dev, err := aht10.Open(cfg)
	if err != nil {
		log.Error("sensor unavailable, every read will fail",
			"device", cfg.Device,
			"address", fmt.Sprintf("0x%02x", cfg.Address),
			"error", err,
		)
		return unavailableSensor{err: err}, func() {}
	}

	log.Info("sensor initialised",
		"device", cfg.Device,
		"address", fmt.Sprintf("0x%02x", cfg.Address),
		"sda_pin", cfg.SDAPin,
		"scl_pin", cfg.SCLPin,
	)
	return dev, func() { _ = dev.Close() } //nolint:errcheck // Shutdown path
}

// unavailableSensor reports the open error on every read.
type unavailableSensor struct {
	err error
}

func (s unavailableSensor) Humidity() (float64, error)    { return 0, s.err }
func (s unavailableSensor) Temperature() (float64, error) { return 0, s.err }

// recorderSet holds the optional cycle recorders.
type recorderSet struct {
	db      *database.DB
	journal *journal.Repository
	influx  *influxdb.Client
	metrics *metrics.Recorder
}

// all returns the configured recorders in a fixed order.
func (r recorderSet) all() []node.Recorder {
	var out []node.Recorder
	if r.journal != nil {
		out = append(out, r.journal)
	}
	if r.influx != nil {
		out = append(out, r.influx)
	}
	if r.metrics != nil {
		out = append(out, r.metrics)
	}
	return out
}

// healthCheck verifies the storage behind the recorders is reachable.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func (r recorderSet) healthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if r.db != nil {
		if err := r.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	if r.influx != nil {
		if err := r.influx.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// buildRecorders opens every enabled recorder. Recorders are diagnostics, so
// a recorder that fails to open is logged and skipped.
//
// Returns:
//   - recorderSet: The recorders that opened
//   - func(): Closes them in reverse order
func buildRecorders(ctx context.Context, cfg *config.Config, log *logging.Logger) (recorderSet, func()) {
	var (
		set     recorderSet
		closers []func()
	)

	if cfg.Journal.Enabled {
		db, err := openJournal(ctx, cfg)
		if err != nil {
			log.Warn("cycle journal disabled", "path", cfg.Journal.Path, "error", err)
		} else {
			set.journal = journal.NewRepository(db.DB, cfg.Node.ID, cfg.Journal.MaxEntries)
			set.db = db
			closers = append(closers, func() {
				log.Info("closing journal")
				if closeErr := db.Close(); closeErr != nil {
					log.Error("error closing journal", "error", closeErr)
				}
			})
			entries, countErr := set.journal.Count(ctx)
			if countErr != nil {
				log.Warn("reading journal size failed", "error", countErr)
			}
			log.Info("cycle journal opened", "path", db.Path(), "entries", entries)
		}
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(cfg.InfluxDB, cfg.Node.ID)
		if err != nil {
			log.Warn("InfluxDB mirror disabled", "url", cfg.InfluxDB.URL, "error", err)
		} else {
			client.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			set.influx = client
			closers = append(closers, func() {
				log.Info("closing InfluxDB connection")
				if closeErr := client.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			})
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"org", cfg.InfluxDB.Org,
				"bucket", cfg.InfluxDB.Bucket,
			)
		}
	}

	// Nothing scrapes a process that halts after one cycle.
	if cfg.Metrics.Enabled && !cfg.IsOneShot() {
		set.metrics = metrics.New(cfg.Node.ID)
	}

	return set, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

// openJournal opens and migrates the journal database.
func openJournal(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(cfg.Journal)
	if err != nil {
		return nil, err
	}

	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
		return nil, errors.Join(fmt.Errorf("running migrations: %w", err), db.Close())
	}
	return db, nil
}
