package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oPeras1/DoorBell-System-sub001/internal/session"
)

// dialWS connects a test client to the server's /api/v1/ws endpoint.
func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	if resp != nil {
		resp.Body.Close() //nolint:errcheck
	}
	t.Cleanup(func() {
		conn.Close() //nolint:errcheck
	})
	return conn
}

func TestWebSocket_SubscribeAndReceiveSessionEvent(t *testing.T) {
	fm := &fakeManager{}
	srv, router := testServer(t, fm)

	// Session events feed the hub the same way Start() wires them.
	fm.Subscribe(func(evt session.Event) {
		srv.hub.Broadcast(string(evt.Kind), evt.State)
	})

	ts := httptest.NewServer(router)
	defer ts.Close()

	conn := dialWS(t, ts)

	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{string(session.EventSessionChanged)}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("sending subscribe: %v", err)
	}

	// Subscribe ack comes first.
	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("reading ack: %v", err)
	}
	if ack.Type != WSTypeResponse || ack.ID != "1" {
		t.Fatalf("ack = %+v", ack)
	}

	fm.emit(session.Event{
		Kind:  session.EventSessionChanged,
		State: session.State{Authenticated: true},
	})

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("setting deadline: %v", err)
	}
	var evt WSMessage
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if evt.Type != WSTypeEvent || evt.EventType != string(session.EventSessionChanged) {
		t.Fatalf("event = %+v", evt)
	}

	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		t.Fatalf("re-encoding payload: %v", err)
	}
	var state session.State
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if !state.Authenticated {
		t.Error("broadcast state not authenticated")
	}
}

func TestWebSocket_UnsubscribedClientReceivesNothing(t *testing.T) {
	fm := &fakeManager{}
	srv, router := testServer(t, fm)

	ts := httptest.NewServer(router)
	defer ts.Close()

	conn := dialWS(t, ts)

	// Give the read pump a moment to register the client.
	deadline := time.Now().Add(time.Second)
	for srv.hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	srv.hub.Broadcast(string(session.EventSessionChanged), session.State{})

	if err := conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
		t.Fatalf("setting deadline: %v", err)
	}
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("received %+v without a subscription", msg)
	}
}

func TestWebSocket_Ping(t *testing.T) {
	fm := &fakeManager{}
	_, router := testServer(t, fm)

	ts := httptest.NewServer(router)
	defer ts.Close()

	conn := dialWS(t, ts)

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatalf("sending ping: %v", err)
	}

	var resp WSMessage
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("reading pong: %v", err)
	}
	if resp.Type != WSTypePong || resp.ID != "p1" {
		t.Errorf("response = %+v", resp)
	}
}
