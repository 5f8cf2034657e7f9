// Package store provides durable key-value storage for the doorbell client.
//
// The store backs the persisted session token, the cached user profile, the
// one-time push prompt flag, and the per-install identifier. It is plain
// eventually-consistent key-value storage: writes to different keys are
// independent and callers must tolerate transient mismatch between the
// token and profile entries.
//
// Read failures are surfaced as errors but callers treat them identically
// to an absent value; a broken local store must never block startup.
package store
