package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSessionEvent records a session lifecycle event.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - event: The event name (e.g., "login", "logout", "forced_logout",
//     "bootstrap_restore")
//   - userID: Backend user id, or 0 if no session
//
// Example:
//
//	client.WriteSessionEvent("forced_logout", 42)
func (c *Client) WriteSessionEvent(event string, userID int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"session_events",
		map[string]string{
			"event": event,
		},
		map[string]interface{}{
			"user_id": userID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteValidationFailure records a profile revalidation failure that did not
// tear the session down (network error or server-side 5xx). Auth-invalid
// statuses are recorded as forced_logout session events instead.
//
// Parameters:
//   - status: HTTP status of the failed fetch, or 0 for transport errors
//   - transient: Whether the session was preserved
func (c *Client) WriteValidationFailure(status int, transient bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"validation_failures",
		map[string]string{
			"kind": failureKind(transient),
		},
		map[string]interface{}{
			"status": status,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSyncStep records the outcome of one push-subscription sync step.
//
// Parameters:
//   - step: Step name (e.g., "bind_identity", "request_permission",
//     "refresh_identifier")
//   - ok: Whether the step succeeded
func (c *Client) WriteSyncStep(step string, ok bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"push_sync_steps",
		map[string]string{
			"step": step,
		},
		map[string]interface{}{
			"ok": ok,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

func failureKind(transient bool) string {
	if transient {
		return "transient"
	}
	return "auth_invalid"
}
