package push

import (
	"encoding/json"
	"testing"
)

func TestParsePermission(t *testing.T) {
	tests := []struct {
		input string
		want  Permission
	}{
		{input: "granted", want: PermissionGranted},
		{input: "denied", want: PermissionDenied},
		{input: "undetermined", want: PermissionUndetermined},
		{input: "", want: PermissionUndetermined},
		{input: "maybe", want: PermissionUndetermined},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parsePermission(tt.input); got != tt.want {
				t.Errorf("parsePermission(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseEvent(t *testing.T) {
	t.Run("subscribed", func(t *testing.T) {
		event, ok, err := parseEvent([]byte(`{"event":"subscribed","identifier":"push-1"}`))
		if err != nil {
			t.Fatalf("parseEvent() error = %v", err)
		}
		if !ok {
			t.Fatal("parseEvent() ok = false")
		}
		if event.Kind != EventSubscribed || event.Identifier != "push-1" {
			t.Errorf("event = %+v", event)
		}
	})

	t.Run("unknown kind dropped", func(t *testing.T) {
		_, ok, err := parseEvent([]byte(`{"event":"resubscribed"}`))
		if err != nil {
			t.Fatalf("parseEvent() error = %v", err)
		}
		if ok {
			t.Error("parseEvent() ok = true for unknown kind")
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, _, err := parseEvent([]byte(`not json`))
		if err == nil {
			t.Error("parseEvent() error = nil for malformed payload")
		}
	})
}

func TestHandlePermission_UpdatesState(t *testing.T) {
	p := &MQTTProvider{permission: PermissionUndetermined}

	if err := p.handlePermission([]byte(`{"state":"granted"}`)); err != nil {
		t.Fatalf("handlePermission() error = %v", err)
	}

	p.permMu.RLock()
	got := p.permission
	p.permMu.RUnlock()

	if got != PermissionGranted {
		t.Errorf("permission = %q, want granted", got)
	}
}

func TestRequestPayloadCarriesIdentifier(t *testing.T) {
	data, err := json.Marshal(requestPayload{Identifier: "install-1"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// The delivery side reads the same field it echoes back on the
	// events topic, so the request must use the identifier key.
	var echoed eventPayload
	if err := json.Unmarshal(data, &echoed); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if echoed.Identifier != "install-1" {
		t.Errorf("identifier = %q, want %q", echoed.Identifier, "install-1")
	}
}
