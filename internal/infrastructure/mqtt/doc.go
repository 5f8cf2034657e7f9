// Package mqtt provides MQTT client connectivity for the doorbell push channel.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The doorbell client uses MQTT as the transport behind its push provider:
// the broker delivers permission grants and subscription change events for
// this install, and carries the identity-binding messages consumed by the
// backend's delivery side.
//
//	doorbell client ↔ MQTT Broker ↔ push delivery service
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.PushEvents(installID), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("push event: %s", payload)
//	        return nil
//	    })
package mqtt
