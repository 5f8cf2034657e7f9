// Package identity is the HTTP client for the remote identity and
// user-directory service.
//
// It covers the endpoints the session core consumes: login, registration,
// logout, fetching the current profile, and unbinding a push identifier.
// Errors carrying an HTTP status are returned as *StatusError so callers
// can distinguish auth-invalid responses (401, 403, 404) from transient
// server failures.
//
// The session token is an opaque bearer credential; this package attaches
// it to requests and never inspects it.
package identity
