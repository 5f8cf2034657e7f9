package session

import (
	"context"
	"encoding/json"

	"github.com/oPeras1/DoorBell-System-sub001/internal/identity"
	"github.com/oPeras1/DoorBell-System-sub001/internal/store"
)

// Bootstrap restores the persisted session at process start.
//
// It runs at most once; repeated calls are no-ops, so the loading flag
// transitions to false exactly once per process. A storage failure is
// treated the same as no session found. When a token is restored the
// cached profile is published optimistically, pending revalidation by
// the validator reacting to the emitted event.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootstrapOnce.Do(func() { m.restore(ctx) })
}

func (m *Manager) restore(ctx context.Context) {
	token, ok, err := m.store.Get(ctx, store.KeyUserToken)
	if err != nil {
		m.logger.Warn("reading persisted token, starting signed out", "error", err)
		ok = false
	}

	var profile *ProfileState
	if ok && token != "" {
		raw, found, perr := m.store.Get(ctx, store.KeyUser)
		switch {
		case perr != nil:
			m.logger.Warn("reading cached profile", "error", perr)
		case found:
			var p identity.UserProfile
			if uerr := json.Unmarshal([]byte(raw), &p); uerr != nil {
				m.logger.Warn("cached profile is corrupt, discarding", "error", uerr)
			} else {
				profile = &ProfileState{Profile: p, Trust: TrustOptimistic}
			}
		}
	}

	m.mu.Lock()
	if ok && token != "" {
		m.token = token
		m.profile = profile
		m.generation++
	}
	m.loading = false
	m.mu.Unlock()

	m.emit(EventSessionChanged)
}
