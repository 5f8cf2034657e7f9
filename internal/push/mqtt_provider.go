package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/config"
	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/mqtt"
)

// MQTTProvider implements Provider over the broker-backed push channel.
//
// The install's UUID is both the local subscription identifier and the
// topic scope. Permission state arrives on a retained topic, so the
// current grant is known shortly after (re)connecting.
type MQTTProvider struct {
	client    *mqtt.Client
	installID string
	platform  Platform
	qos       byte

	// permission is the last state seen on the retained permission topic.
	permission Permission
	permMu     sync.RWMutex
}

// permissionPayload is the wire format on the permission topic.
type permissionPayload struct {
	State string `json:"state"`
}

// eventPayload is the wire format on the events topic.
type eventPayload struct {
	Event      string `json:"event"`
	Identifier string `json:"identifier"`
}

// bindPayload is the wire format published to the bind topic.
type bindPayload struct {
	UserID     int64  `json:"user_id"`
	Identifier string `json:"identifier"`
}

// requestPayload is the wire format published to the permission-request topic.
type requestPayload struct {
	Identifier string `json:"identifier"`
}

// NewMQTTProvider creates the broker-backed provider and starts tracking
// the retained permission topic.
//
// Parameters:
//   - cfg: Push configuration (platform selection)
//   - client: Connected MQTT client
//   - installID: This install's stable UUID
//
// Returns:
//   - *MQTTProvider: Provider ready for use
//   - error: If the permission subscription cannot be established
func NewMQTTProvider(cfg config.PushConfig, client *mqtt.Client, installID string) (*MQTTProvider, error) {
	p := &MQTTProvider{
		client:     client,
		installID:  installID,
		platform:   Platform(cfg.Platform),
		qos:        1,
		permission: PermissionUndetermined,
	}

	topic := mqtt.Topics{}.PushPermission(installID)
	err := client.Subscribe(topic, p.qos, func(_ string, payload []byte) error {
		return p.handlePermission(payload)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to permission topic: %w", err)
	}

	return p, nil
}

// handlePermission updates the cached permission state from a retained message.
func (p *MQTTProvider) handlePermission(payload []byte) error {
	var msg permissionPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding permission payload: %w", err)
	}

	state := parsePermission(msg.State)

	p.permMu.Lock()
	p.permission = state
	p.permMu.Unlock()
	return nil
}

// parsePermission maps a wire state onto a Permission, defaulting to
// undetermined for anything unrecognised.
func parsePermission(state string) Permission {
	switch Permission(state) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionUndetermined
	}
}

// Platform reports the configured permission flow.
func (p *MQTTProvider) Platform() Platform {
	return p.platform
}

// Ready reports whether the broker connection is up.
func (p *MQTTProvider) Ready() bool {
	return p.client.IsConnected()
}

// LocalIdentifier returns the install UUID.
func (p *MQTTProvider) LocalIdentifier(_ context.Context) (string, error) {
	if p.installID == "" {
		return "", fmt.Errorf("push: no install identifier")
	}
	return p.installID, nil
}

// PermissionState returns the last permission state seen on the retained topic.
func (p *MQTTProvider) PermissionState(_ context.Context) (Permission, error) {
	p.permMu.RLock()
	defer p.permMu.RUnlock()
	return p.permission, nil
}

// RequestPermission asks the delivery side to raise the permission dialog.
func (p *MQTTProvider) RequestPermission(_ context.Context) error {
	data, err := json.Marshal(requestPayload{Identifier: p.installID})
	if err != nil {
		return fmt.Errorf("encoding permission request: %w", err)
	}

	topic := mqtt.Topics{}.PushPermissionRequest(p.installID)
	if err := p.client.Publish(topic, data, p.qos, false); err != nil {
		return fmt.Errorf("requesting permission: %w", err)
	}
	return nil
}

// OnSubscriptionChange registers a handler for subscription transitions.
//
// Unknown event kinds are dropped; a malformed payload is reported as a
// handler error and logged by the MQTT client, never raised to the caller.
func (p *MQTTProvider) OnSubscriptionChange(handler func(Event)) error {
	topic := mqtt.Topics{}.PushEvents(p.installID)
	return p.client.Subscribe(topic, p.qos, func(_ string, payload []byte) error {
		event, ok, err := parseEvent(payload)
		if err != nil {
			return err
		}
		if ok {
			handler(event)
		}
		return nil
	})
}

// parseEvent decodes an events-topic payload.
// ok is false for recognised-but-irrelevant or unknown event kinds.
func parseEvent(payload []byte) (Event, bool, error) {
	var msg eventPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Event{}, false, fmt.Errorf("decoding event payload: %w", err)
	}

	switch EventKind(msg.Event) {
	case EventSubscribed, EventUnsubscribed:
		return Event{Kind: EventKind(msg.Event), Identifier: msg.Identifier}, true, nil
	default:
		return Event{}, false, nil
	}
}

// BindIdentity publishes the profile association for the delivery side.
func (p *MQTTProvider) BindIdentity(_ context.Context, userID int64) error {
	data, err := json.Marshal(bindPayload{
		UserID:     userID,
		Identifier: p.installID,
	})
	if err != nil {
		return fmt.Errorf("encoding bind payload: %w", err)
	}

	topic := mqtt.Topics{}.PushBind(p.installID)
	if err := p.client.Publish(topic, data, p.qos, false); err != nil {
		return fmt.Errorf("binding identity: %w", err)
	}
	return nil
}
