package session

import (
	"github.com/oPeras1/DoorBell-System-sub001/internal/identity"
)

// Validator revalidates the token against the identity service whenever
// the session changes.
//
// State machine: no session means nothing to do; a present token is
// unvalidated until a profile fetch succeeds. A fetch rejected with 401,
// 403, or 404 forces a logout. Any other failure, network errors
// included, is assumed transient: it is logged and reported to the sink
// and the session is left standing until the next natural trigger.
//
// Each run is pinned to the generation it started from; a login or
// logout that lands while a fetch is in flight supersedes it and its
// result is discarded.
type Validator struct {
	m *Manager
}

// onSessionChanged is subscribed to the manager's event stream.
func (v *Validator) onSessionChanged(evt Event) {
	if evt.Kind != EventSessionChanged {
		return
	}

	token, gen := v.m.current()
	if token == "" {
		return
	}

	v.m.spawn(func() {
		v.run(token, gen)
	})
}

// run performs one validation pass for the given token and generation.
func (v *Validator) run(token string, gen uint64) {
	m := v.m

	profile, err := m.identity.FetchProfile(m.ctx, token)
	if !m.liveAt(gen) {
		return
	}

	if err != nil {
		status := identity.StatusOf(err)
		if identity.AuthInvalid(err) {
			m.logger.Warn("session rejected by identity service, logging out",
				"status", status)
			m.sink.WriteValidationFailure(status, false)
			m.Logout(m.ctx)
			return
		}
		m.logger.Warn("profile validation failed, keeping session",
			"status", status, "error", err)
		m.sink.WriteValidationFailure(status, true)
		return
	}

	if !v.commit(gen, profile) {
		return
	}

	m.persistProfile(m.ctx, profile)
	m.emit(EventProfileChanged)
	m.syncer.Run()
}

// commit publishes the validated profile unless the run was superseded.
func (v *Validator) commit(gen uint64, profile *identity.UserProfile) bool {
	m := v.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive || m.generation != gen {
		return false
	}
	m.profile = &ProfileState{Profile: *profile, Trust: TrustValidated}
	return true
}
