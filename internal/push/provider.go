package push

import "context"

// Permission is the notification permission state for this install.
type Permission string

// Permission states.
const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUndetermined Permission = "undetermined"
)

// Platform identifies the permission flow the provider runs under.
type Platform string

// Platforms.
const (
	// PlatformWeb prompts through the browser; the dialog must be raised
	// at most once per install (durable flag owned by the sync coordinator).
	PlatformWeb Platform = "web"

	// PlatformNative defers to the OS-level flow, which dedupes prompts
	// itself, so the client always attempts silently.
	PlatformNative Platform = "native"
)

// EventKind classifies a subscription change event.
type EventKind string

// Event kinds delivered on the change stream.
const (
	EventSubscribed   EventKind = "subscribed"
	EventUnsubscribed EventKind = "unsubscribed"
)

// Event is a subscription state transition reported by the provider.
type Event struct {
	Kind       EventKind
	Identifier string
}

// Provider is the contract the session core consumes.
//
// Every method is best-effort from the caller's perspective: the sync
// coordinator swallows and logs failures rather than aborting the
// surrounding flow.
type Provider interface {
	// Platform reports which permission flow applies.
	Platform() Platform

	// Ready reports whether the provider can answer the other calls.
	// On web the underlying facility may not be available at process
	// start; callers poll until it is.
	Ready() bool

	// LocalIdentifier returns the per-install subscription identifier.
	// The identifier is re-derived on demand, never cached by callers.
	LocalIdentifier(ctx context.Context) (string, error)

	// PermissionState returns the current permission state.
	PermissionState(ctx context.Context) (Permission, error)

	// RequestPermission asks the platform to raise the permission dialog.
	RequestPermission(ctx context.Context) error

	// OnSubscriptionChange registers a handler for subscription state
	// transitions. Callers must register at most once per process; the
	// sync coordinator owns that discipline.
	OnSubscriptionChange(handler func(Event)) error

	// BindIdentity associates the provider's delivery identity with a
	// backend user id. Optional: implementations without the concept
	// return nil.
	BindIdentity(ctx context.Context, userID int64) error
}
