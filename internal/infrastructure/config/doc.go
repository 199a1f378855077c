// Package config handles loading and validating climate node configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The Wi-Fi passphrase and broker password should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Configuration is loaded once at startup and never mutated afterwards.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Topic)
package config
