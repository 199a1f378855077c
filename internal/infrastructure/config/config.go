package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/climate-node/internal/node"
)

// Operating modes for the node.
const (
	ModeContinuous = "continuous"
	ModeOneShot    = "oneshot"
)

// Config is the root configuration structure for the climate node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node     NodeConfig     `yaml:"node"`
	Network  NetworkConfig  `yaml:"network"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Sensor   SensorConfig   `yaml:"sensor"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Power    PowerConfig    `yaml:"power"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Journal  JournalConfig  `yaml:"journal"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// NodeConfig identifies the node and selects its operating mode.
type NodeConfig struct {
	ID   string `yaml:"id"`
	Mode string `yaml:"mode"`
}

// NetworkConfig contains wireless network settings.
type NetworkConfig struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
	Interface  string `yaml:"interface"`

	// ContinuousAttempts and OneShotAttempts bound the association poll.
	// One-shot mode gets the tighter bound because it runs on a power budget.
	ContinuousAttempts int           `yaml:"continuous_attempts"`
	OneShotAttempts    int           `yaml:"oneshot_attempts"`
	PollInterval       time.Duration `yaml:"poll_interval"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker         MQTTBrokerConfig `yaml:"broker"`
	Auth           MQTTAuthConfig   `yaml:"auth"`
	Topic          string           `yaml:"topic"`
	QoS            int              `yaml:"qos"`
	ConnectTimeout time.Duration    `yaml:"connect_timeout"`
	PublishTimeout time.Duration    `yaml:"publish_timeout"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SensorConfig describes where the AHT10 sits on the two-wire bus.
type SensorConfig struct {
	Device  string `yaml:"device"`
	Address int    `yaml:"address"`

	// SDAPin and SCLPin are only reported in diagnostics; the kernel
	// driver owns the actual pin muxing.
	SDAPin int `yaml:"sda_pin"`
	SCLPin int `yaml:"scl_pin"`
}

// ScheduleConfig contains the lifecycle timings.
type ScheduleConfig struct {
	Interval      time.Duration `yaml:"interval"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	FaultCooldown time.Duration `yaml:"fault_cooldown"`
	FlushDelay    time.Duration `yaml:"flush_delay"`
	DeepSleep     time.Duration `yaml:"deep_sleep"`
}

// PowerConfig contains settings for the low-power halt.
type PowerConfig struct {
	// RTCWake is the path to the rtcwake binary.
	RTCWake string `yaml:"rtcwake"`

	// SuspendMode is passed to rtcwake -m (mem, standby, freeze, off).
	SuspendMode string `yaml:"suspend_mode"`
}

// InfluxDBConfig contains settings for the optional local reading mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// JournalConfig contains SQLite cycle journal settings.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
	MaxEntries  int    `yaml:"max_entries"`
}

// MetricsConfig contains Prometheus exporter settings.
// The listener only runs in continuous mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// Output is stdout, stderr, or a file path opened for append.
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CLIMATENODE_SECTION_KEY
// For example: CLIMATENODE_WIFI_SSID, CLIMATENODE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config populated with the field-tested defaults.
// Network credentials are deliberately left empty.
func Default() *Config {
	timings := node.DefaultTimings()

	return &Config{
		Node: NodeConfig{
			ID:   "esp32-s3",
			Mode: ModeContinuous,
		},
		Network: NetworkConfig{
			Interface:          "wlan0",
			ContinuousAttempts: timings.ContinuousAttempts,
			OneShotAttempts:    timings.OneShotAttempts,
			PollInterval:       time.Second,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "85.215.147.110",
				Port:     1883,
				ClientID: "esp32-s3",
			},
			Topic:          "esp32/AHT10",
			QoS:            0,
			ConnectTimeout: 10 * time.Second,
			PublishTimeout: 5 * time.Second,
		},
		Sensor: SensorConfig{
			Device:  "/dev/i2c-1",
			Address: 0x38,
			SDAPin:  10,
			SCLPin:  9,
		},
		Schedule: ScheduleConfig{
			Interval:      timings.Interval,
			RetryDelay:    timings.RetryDelay,
			FaultCooldown: timings.FaultCooldown,
			FlushDelay:    timings.FlushDelay,
			DeepSleep:     timings.DeepSleep,
		},
		Power: PowerConfig{
			RTCWake:     "/usr/sbin/rtcwake",
			SuspendMode: "mem",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Journal: JournalConfig{
			Path:        "./data/journal.db",
			WALMode:     true,
			BusyTimeout: 5,
			MaxEntries:  10000,
		},
		Metrics: MetricsConfig{
			Listen: "127.0.0.1:9108",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Secrets belong here rather than in the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLIMATENODE_MODE"); v != "" {
		cfg.Node.Mode = v
	}

	// Network
	if v := os.Getenv("CLIMATENODE_WIFI_SSID"); v != "" {
		cfg.Network.SSID = v
	}
	if v := os.Getenv("CLIMATENODE_WIFI_PASSPHRASE"); v != "" {
		cfg.Network.Passphrase = v
	}

	// MQTT
	if v := os.Getenv("CLIMATENODE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("CLIMATENODE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("CLIMATENODE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("CLIMATENODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	}
	switch c.Node.Mode {
	case ModeContinuous, ModeOneShot:
	default:
		errs = append(errs, fmt.Sprintf("node.mode must be %q or %q", ModeContinuous, ModeOneShot))
	}

	// Network validation
	if c.Network.SSID == "" {
		errs = append(errs, "network.ssid is required (set CLIMATENODE_WIFI_SSID environment variable)")
	}
	if c.Network.ContinuousAttempts < 1 || c.Network.OneShotAttempts < 1 {
		errs = append(errs, "network attempt bounds must be at least 1")
	}
	if c.Network.PollInterval <= 0 {
		errs = append(errs, "network.poll_interval must be positive")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.Topic == "" {
		errs = append(errs, "mqtt.topic is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Sensor validation
	if c.Sensor.Device == "" {
		errs = append(errs, "sensor.device is required")
	}
	if c.Sensor.Address < 0x03 || c.Sensor.Address > 0x77 {
		errs = append(errs, "sensor.address must be a 7-bit I2C address")
	}

	// Schedule validation
	s := c.Schedule
	if s.Interval <= 0 || s.RetryDelay <= 0 || s.FaultCooldown <= 0 || s.DeepSleep <= 0 {
		errs = append(errs, "schedule durations must be positive")
	}
	if s.FlushDelay < 0 {
		errs = append(errs, "schedule.flush_delay cannot be negative")
	}

	if c.Node.Mode == ModeOneShot && c.Power.RTCWake == "" {
		errs = append(errs, "power.rtcwake is required in oneshot mode")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when enabled")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errs = append(errs, "metrics.listen is required when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// BrokerAddress returns host:port for log lines.
func (c MQTTConfig) BrokerAddress() string {
	return fmt.Sprintf("%s:%d", c.Broker.Host, c.Broker.Port)
}

// IsOneShot reports whether the node powers down between samples.
func (c *Config) IsOneShot() bool {
	return c.Node.Mode == ModeOneShot
}
