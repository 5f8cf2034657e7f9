// Package session owns the device's authentication session lifecycle and
// keeps the push notification subscription synchronised with it.
//
// The Manager is the single owner of session state. At process start
// Bootstrap restores the persisted token and cached profile, publishing
// the profile optimistically. Every session change is emitted as an
// event; the Validator reacts by fetching the profile from the identity
// service, promoting the cached copy to validated on success and forcing
// a logout when the service answers 401, 403, or 404. Successful
// validation, and each login after a short delay, triggers the
// SyncCoordinator, which binds the push identifier, runs the one-time
// permission prompt, and refreshes the identifier with the backend.
//
// Transient failures never tear the session down, sync steps are
// individually best-effort, and logout clears local state whether or not
// the remote calls succeed. Background work carries the generation it
// started from and is discarded when a newer session supersedes it or
// the manager is closed.
package session
