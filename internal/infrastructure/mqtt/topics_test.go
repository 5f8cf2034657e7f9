package mqtt

import (
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{}
	installID := "4f7c6a1e-9b0d-4a2f-8c3e-1d5b7f9a0c2e"

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "system status",
			got:  topics.SystemStatus(),
			want: "doorbell/system/status",
		},
		{
			name: "push permission",
			got:  topics.PushPermission(installID),
			want: "doorbell/push/" + installID + "/permission",
		},
		{
			name: "push permission request",
			got:  topics.PushPermissionRequest(installID),
			want: "doorbell/push/" + installID + "/permission/request",
		},
		{
			name: "push events",
			got:  topics.PushEvents(installID),
			want: "doorbell/push/" + installID + "/events",
		},
		{
			name: "push bind",
			got:  topics.PushBind(installID),
			want: "doorbell/push/" + installID + "/bind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("topic = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("client-01")
	if !strings.Contains(online, `"status":"online"`) {
		t.Errorf("online payload missing status: %s", online)
	}
	if !strings.Contains(online, `"client_id":"client-01"`) {
		t.Errorf("online payload missing client_id: %s", online)
	}

	offline := buildOfflinePayload("client-01")
	if !strings.Contains(offline, `"status":"offline"`) {
		t.Errorf("offline payload missing status: %s", offline)
	}
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload missing reason: %s", offline)
	}
}
