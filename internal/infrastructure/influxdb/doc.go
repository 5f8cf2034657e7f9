// Package influxdb provides the optional session observability sink.
//
// It wraps the official influxdb-client-go v2 library with the client's
// patterns for connection management, event writing, and health monitoring.
//
// # Purpose
//
// This package records time-series data for:
//   - Session lifecycle events (login, logout, forced logout, restore)
//   - Profile revalidation failures that were tolerated as transient
//   - Push-subscription sync step outcomes
//
// The sink is best-effort: when disabled or unreachable, the session core
// runs unchanged and writes are dropped.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteSessionEvent("login", profile.ID)
package influxdb
