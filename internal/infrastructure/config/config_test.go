package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/climate-node/internal/node"
)

// writeConfig writes content to a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// validConfig returns a Config that passes validation.
func validConfig() *Config {
	cfg := Default()
	cfg.Network.SSID = "BZTG-IoT"
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
node:
  id: "greenhouse-01"
  mode: "oneshot"
network:
  ssid: "BZTG-IoT"
  oneshot_attempts: 12
mqtt:
  broker:
    host: "broker.local"
    port: 8883
    client_id: "esp32-s3-deepsleep"
  topic: "esp32/AHT10"
schedule:
  deep_sleep: "58s"
  interval: "15s"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Node.ID != "greenhouse-01" {
		t.Errorf("Node.ID = %q, want %q", cfg.Node.ID, "greenhouse-01")
	}
	if !cfg.IsOneShot() {
		t.Error("IsOneShot() = false, want true")
	}
	if cfg.Network.OneShotAttempts != 12 {
		t.Errorf("Network.OneShotAttempts = %d, want 12", cfg.Network.OneShotAttempts)
	}
	if cfg.Network.ContinuousAttempts != 20 {
		t.Errorf("Network.ContinuousAttempts = %d, want default 20", cfg.Network.ContinuousAttempts)
	}
	if cfg.Schedule.DeepSleep != 58*time.Second {
		t.Errorf("Schedule.DeepSleep = %v, want 58s", cfg.Schedule.DeepSleep)
	}
	if cfg.Schedule.Interval != 15*time.Second {
		t.Errorf("Schedule.Interval = %v, want 15s", cfg.Schedule.Interval)
	}
	if cfg.MQTT.BrokerAddress() != "broker.local:8883" {
		t.Errorf("BrokerAddress() = %q, want %q", cfg.MQTT.BrokerAddress(), "broker.local:8883")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
node:
  mode: "sometimes"
network:
  ssid: "BZTG-IoT"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for unknown mode, got nil")
	}
	if !strings.Contains(err.Error(), "node.mode") {
		t.Errorf("error = %v, want mention of node.mode", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLIMATENODE_WIFI_SSID", "env-ssid")
	t.Setenv("CLIMATENODE_WIFI_PASSPHRASE", "env-pass")
	t.Setenv("CLIMATENODE_MQTT_HOST", "env-broker")
	t.Setenv("CLIMATENODE_MQTT_USERNAME", "tim")
	t.Setenv("CLIMATENODE_MQTT_PASSWORD", "secret")
	t.Setenv("CLIMATENODE_MODE", "oneshot")

	cfg, err := Load(writeConfig(t, "network:\n  ssid: file-ssid\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Network.SSID != "env-ssid" {
		t.Errorf("Network.SSID = %q, want env override", cfg.Network.SSID)
	}
	if cfg.Network.Passphrase != "env-pass" {
		t.Errorf("Network.Passphrase = %q, want env override", cfg.Network.Passphrase)
	}
	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Auth.Username != "tim" || cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("MQTT.Auth = %+v, want env credentials", cfg.MQTT.Auth)
	}
	if cfg.Node.Mode != ModeOneShot {
		t.Errorf("Node.Mode = %q, want %q", cfg.Node.Mode, ModeOneShot)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.MQTT.Topic != "esp32/AHT10" {
		t.Errorf("MQTT.Topic = %q, want %q", cfg.MQTT.Topic, "esp32/AHT10")
	}
	if cfg.Schedule.FaultCooldown != 60*time.Second {
		t.Errorf("Schedule.FaultCooldown = %v, want 60s", cfg.Schedule.FaultCooldown)
	}
	if cfg.Schedule.RetryDelay != 5*time.Second {
		t.Errorf("Schedule.RetryDelay = %v, want 5s", cfg.Schedule.RetryDelay)
	}
	if cfg.Sensor.Address != 0x38 {
		t.Errorf("Sensor.Address = %#x, want 0x38", cfg.Sensor.Address)
	}
	if cfg.Network.SSID != "" {
		t.Error("default config must not carry network credentials")
	}
}

func TestDefault_MatchesNodeTimings(t *testing.T) {
	cfg := Default()
	want := node.DefaultTimings()

	got := node.Timings{
		Interval:           cfg.Schedule.Interval,
		RetryDelay:         cfg.Schedule.RetryDelay,
		FaultCooldown:      cfg.Schedule.FaultCooldown,
		FlushDelay:         cfg.Schedule.FlushDelay,
		DeepSleep:          cfg.Schedule.DeepSleep,
		ContinuousAttempts: cfg.Network.ContinuousAttempts,
		OneShotAttempts:    cfg.Network.OneShotAttempts,
	}
	if got != want {
		t.Errorf("default schedule = %+v, want %+v", got, want)
	}
	if cfg.Schedule.DeepSleep != 58*time.Second || cfg.Network.OneShotAttempts != 15 {
		t.Errorf("one-shot defaults = %v/%d, want 58s/15", cfg.Schedule.DeepSleep, cfg.Network.OneShotAttempts)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing ssid",
			mutate:  func(c *Config) { c.Network.SSID = "" },
			wantErr: true,
		},
		{
			name:    "missing node id",
			mutate:  func(c *Config) { c.Node.ID = "" },
			wantErr: true,
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Network.OneShotAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "empty topic",
			mutate:  func(c *Config) { c.MQTT.Topic = "" },
			wantErr: true,
		},
		{
			name:    "address out of range",
			mutate:  func(c *Config) { c.Sensor.Address = 0x80 },
			wantErr: true,
		},
		{
			name:    "zero deep sleep",
			mutate:  func(c *Config) { c.Schedule.DeepSleep = 0 },
			wantErr: true,
		},
		{
			name: "oneshot without rtcwake",
			mutate: func(c *Config) {
				c.Node.Mode = ModeOneShot
				c.Power.RTCWake = ""
			},
			wantErr: true,
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: true,
		},
		{
			name: "journal enabled without path",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Path = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Network.SSID = ""
	cfg.MQTT.Topic = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"network.ssid", "mqtt.topic"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
