package session

import (
	"sync"
	"time"

	"github.com/oPeras1/DoorBell-System-sub001/internal/push"
	"github.com/oPeras1/DoorBell-System-sub001/internal/store"
)

// SyncCoordinator keeps the device's push subscription aligned with the
// backend: identity binding, the one-time permission prompt, and
// identifier refresh.
//
// Every step is independently best-effort. A failing step is logged and
// reported to the sink and the remaining steps still run; nothing here
// may abort the surrounding flow.
type SyncCoordinator struct {
	m *Manager

	// runMu serialises passes. A validation-triggered pass and the
	// delayed post-login pass can otherwise overlap and race the
	// prompt-once flag.
	runMu sync.Mutex

	// listenerMu guards the once-per-process change listener.
	listenerMu         sync.Mutex
	listenerRegistered bool
}

// Run performs one sync pass. Called after each successful validation
// and, separately, shortly after a login.
func (s *SyncCoordinator) Run() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	m := s.m

	if !s.waitReady() {
		return
	}

	s.bindIdentity()

	perm, err := m.provider.PermissionState(m.ctx)
	if err != nil {
		m.logger.Warn("reading push permission state", "error", err)
		m.sink.WriteSyncStep("permission", false)
		perm = push.PermissionUndetermined
	}

	if perm != push.PermissionGranted {
		s.maybePrompt()
	} else {
		s.refreshIdentifier()
	}

	s.registerListener()

	m.emit(EventSyncCompleted)
}

// waitReady blocks until the provider is ready. On web the provider can
// lag process start, so readiness is polled; the wait ends on teardown
// and, when configured, at a hard ceiling. Non-web platforms never wait.
func (s *SyncCoordinator) waitReady() bool {
	m := s.m

	if m.provider.Ready() {
		return true
	}
	if m.provider.Platform() != push.PlatformWeb {
		return true
	}

	var ceiling <-chan time.Time
	if m.opts.ReadyWaitCeiling > 0 {
		t := time.NewTimer(m.opts.ReadyWaitCeiling)
		defer t.Stop()
		ceiling = t.C
	}

	tick := time.NewTicker(m.opts.ReadyPollInterval)
	defer tick.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return false
		case <-ceiling:
			m.logger.Warn("push provider never became ready, skipping sync",
				"waited", m.opts.ReadyWaitCeiling)
			m.sink.WriteSyncStep("ready", false)
			return false
		case <-tick.C:
			if m.provider.Ready() {
				return true
			}
		}
	}
}

// bindIdentity associates the provider's delivery identity with the
// known profile id, when both exist.
func (s *SyncCoordinator) bindIdentity() {
	m := s.m

	userID, ok := m.validatedUserID()
	if !ok {
		return
	}

	if err := m.provider.BindIdentity(m.ctx, userID); err != nil {
		m.logger.Warn("binding push identity", "error", err)
		m.sink.WriteSyncStep("bind", false)
		return
	}
	m.sink.WriteSyncStep("bind", true)
}

// maybePrompt requests notification permission, at most once per install
// on web. The durable flag is written before the request so the
// prompt-once decision survives a failing request.
func (s *SyncCoordinator) maybePrompt() {
	m := s.m

	if m.provider.Platform() == push.PlatformWeb {
		_, shown, err := m.store.Get(m.ctx, store.KeyPushPromptShown)
		if err != nil {
			m.logger.Warn("reading prompt flag", "error", err)
			shown = false
		}
		if shown {
			return
		}
		if err := m.store.Set(m.ctx, store.KeyPushPromptShown, store.PromptShownSentinel); err != nil {
			m.logger.Warn("persisting prompt flag, skipping prompt", "error", err)
			m.sink.WriteSyncStep("prompt", false)
			return
		}
	}

	if err := m.provider.RequestPermission(m.ctx); err != nil {
		m.logger.Warn("requesting push permission", "error", err)
		m.sink.WriteSyncStep("prompt", false)
		return
	}
	m.sink.WriteSyncStep("prompt", true)
}

// refreshIdentifier re-registers the current identifier against the
// profile, covering rotation between sessions.
func (s *SyncCoordinator) refreshIdentifier() {
	m := s.m

	token := m.currentToken()
	if token == "" {
		return
	}

	id, err := m.provider.LocalIdentifier(m.ctx)
	if err != nil || id == "" {
		m.logger.Warn("push identifier unavailable for refresh", "error", err)
		m.sink.WriteSyncStep("refresh", false)
		return
	}

	if err := m.identity.RefreshPushIdentifier(m.ctx, token, id); err != nil {
		m.logger.Warn("refreshing push identifier", "error", err)
		m.sink.WriteSyncStep("refresh", false)
		return
	}
	m.sink.WriteSyncStep("refresh", true)
}

// registerListener subscribes to the provider's change stream at most
// once per process. A "subscribed" transition re-runs the identifier
// refresh, which is how a user who grants permission after initial load
// gets bound without a re-login. A failed registration is retried on
// the next pass.
func (s *SyncCoordinator) registerListener() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	if s.listenerRegistered {
		return
	}

	err := s.m.provider.OnSubscriptionChange(func(evt push.Event) {
		if !s.m.live() {
			return
		}
		if evt.Kind == push.EventSubscribed {
			s.refreshIdentifier()
		}
	})
	if err != nil {
		s.m.logger.Warn("registering subscription change listener", "error", err)
		return
	}
	s.listenerRegistered = true
}
