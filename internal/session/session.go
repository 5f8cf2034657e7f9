package session

import "github.com/oPeras1/DoorBell-System-sub001/internal/identity"

// Trust marks how much a cached profile can be relied on.
type Trust string

// Trust levels for a published profile.
const (
	// TrustOptimistic is a profile restored from the local cache or
	// returned inline with a login, not yet confirmed by the directory.
	TrustOptimistic Trust = "optimistic"

	// TrustValidated is a profile confirmed by a successful fetch
	// against the identity service during this process lifetime.
	TrustValidated Trust = "validated"
)

// ProfileState is the two-phase profile value: the cached or fetched
// profile together with its trust level, so consumers can distinguish
// "shown while revalidating" from "confirmed" explicitly.
type ProfileState struct {
	Profile identity.UserProfile `json:"profile"`
	Trust   Trust                `json:"trust"`
}

// State is a point-in-time snapshot of the session.
//
// Loading is true only between process start and the completion of the
// first bootstrap, successful or not.
type State struct {
	Loading       bool          `json:"loading"`
	Authenticated bool          `json:"authenticated"`
	Profile       *ProfileState `json:"profile,omitempty"`
}

// EventKind classifies a session event.
type EventKind string

// Event kinds delivered to subscribers.
const (
	// EventSessionChanged fires whenever the token appears, changes, or
	// is cleared, including the initial bootstrap outcome.
	EventSessionChanged EventKind = "sessionChanged"

	// EventProfileChanged fires when a validated profile replaces the
	// optimistic one.
	EventProfileChanged EventKind = "profileChanged"

	// EventSyncCompleted fires after a notification sync pass finishes.
	EventSyncCompleted EventKind = "syncCompleted"
)

// Event carries a state snapshot taken at emission time, so subscribers
// never need to call back into the manager.
type Event struct {
	Kind  EventKind `json:"kind"`
	State State     `json:"state"`
}
