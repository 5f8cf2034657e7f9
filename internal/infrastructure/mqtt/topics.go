package mqtt

import "fmt"

// Topic prefixes for the doorbell push channel.
//
// All push topics are scoped per install: doorbell/push/{install_id}/...
// The install ID is the same UUID used as the push identifier registered
// with the backend.
const (
	// TopicPrefixPush is the base for per-install push topics.
	TopicPrefixPush = "doorbell/push"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "doorbell/system"
)

// Topics provides builders for doorbell MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	permTopic := topics.PushPermission("4f7c...")
//	// Returns: "doorbell/push/4f7c.../permission"
type Topics struct{}

// SystemStatus returns the topic for client online/offline status (LWT).
//
// Example: doorbell/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// PushPermission returns the retained topic carrying this install's
// notification permission state ("granted", "denied").
//
// Example: doorbell/push/{install_id}/permission
func (Topics) PushPermission(installID string) string {
	return fmt.Sprintf("%s/%s/permission", TopicPrefixPush, installID)
}

// PushPermissionRequest returns the topic used to ask the delivery side to
// raise the permission dialog for this install.
//
// Example: doorbell/push/{install_id}/permission/request
func (Topics) PushPermissionRequest(installID string) string {
	return fmt.Sprintf("%s/%s/permission/request", TopicPrefixPush, installID)
}

// PushEvents returns the topic carrying subscription change events for this
// install ("subscribed", "unsubscribed").
//
// Example: doorbell/push/{install_id}/events
func (Topics) PushEvents(installID string) string {
	return fmt.Sprintf("%s/%s/events", TopicPrefixPush, installID)
}

// PushBind returns the topic used to associate this install's push
// identifier with a backend user id.
//
// Example: doorbell/push/{install_id}/bind
func (Topics) PushBind(installID string) string {
	return fmt.Sprintf("%s/%s/bind", TopicPrefixPush, installID)
}
