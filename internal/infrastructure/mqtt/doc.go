// Package mqtt provides the broker session used to publish readings.
//
// This package manages:
//   - Building paho client options from config (URL, client id, auth, TLS)
//   - One connect per Session, bounded by a timeout
//   - QoS 0 publishing with payload and topic validation
//   - Best-effort disconnect
//
// # Lifecycle
//
// Automatic reconnection is disabled. The node's BrokerClient owns retry:
// after any failure it drops the Session and builds a new one.
//
//	session, err := mqtt.NewSession(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	if err := session.Connect(); err != nil {
//	    return err
//	}
//	defer session.Disconnect()
//	session.Publish("esp32/AHT10", []byte(`{"temperatur":21.5,"luftfeuchtigkeit":47.33}`))
//
// # Security Considerations
//
//   - Enable TLS (mqtt.broker.tls) whenever the broker is off-site
//   - Credentials are validated against the broker ACL
package mqtt
