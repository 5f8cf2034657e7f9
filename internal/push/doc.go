// Package push defines the push-notification provider contract and its
// MQTT-backed implementation.
//
// The provider abstracts the platform-specific notification facility: a
// readiness signal, retrieval of the local subscription identifier, the
// current permission state, a way to request permission, a subscribable
// change-event stream, and optional identity binding. The session core
// consumes only this contract; delivery itself is opaque.
//
// The MQTT implementation maps the contract onto per-install broker topics:
// the retained permission topic carries the current grant state, the events
// topic carries subscribe/unsubscribe transitions, and binding publishes
// the profile association for the delivery side.
package push
