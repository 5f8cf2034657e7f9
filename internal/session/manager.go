package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/oPeras1/DoorBell-System-sub001/internal/identity"
	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/logging"
	"github.com/oPeras1/DoorBell-System-sub001/internal/push"
	"github.com/oPeras1/DoorBell-System-sub001/internal/store"
)

// IdentityClient is the slice of the identity service the session core
// consumes. *identity.Client satisfies it.
type IdentityClient interface {
	Login(ctx context.Context, creds identity.Credentials) (*identity.LoginResult, error)
	Register(ctx context.Context, reg identity.Registration) (*identity.RegisterResult, error)
	Logout(ctx context.Context, token string) error
	FetchProfile(ctx context.Context, token string) (*identity.UserProfile, error)
	DeletePushIdentifier(ctx context.Context, token, identifier string) error
	RefreshPushIdentifier(ctx context.Context, token, identifier string) error
}

// Options tune the manager's timing behaviour.
type Options struct {
	// LoginSyncDelay is how long after a successful login the
	// notification sync runs, giving the provider time to warm up.
	LoginSyncDelay time.Duration

	// ReadyPollInterval is the provider readiness polling period on web.
	ReadyPollInterval time.Duration

	// ReadyWaitCeiling bounds the readiness wait. Zero means the wait is
	// bounded by teardown only.
	ReadyWaitCeiling time.Duration
}

// defaultReadyPollInterval is used when Options leaves the interval unset.
const defaultReadyPollInterval = 100 * time.Millisecond

// Manager owns the device's session: the bearer token, the cached
// profile, and the push subscription state that follows them around.
//
// It is the write side of the pipeline. Login, Logout, and the bootstrap
// mutate the session under a single mutex and then emit events; the
// validator and sync coordinator react to those events. Superseded
// background work is discarded through a generation counter, and Close
// flips a liveness flag checked before any late callback touches state.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
type Manager struct {
	store    store.Store
	identity IdentityClient
	provider push.Provider
	sink     Sink
	logger   *logging.Logger
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	token      string
	profile    *ProfileState
	loading    bool
	generation uint64
	alive      bool

	bootstrapOnce sync.Once

	subMu sync.Mutex
	subs  []func(Event)

	validator *Validator
	syncer    *SyncCoordinator
}

// NewManager wires the session core together.
//
// Parameters:
//   - st: Durable key-value storage for token, profile, and flags
//   - id: Identity service client
//   - provider: Push provider for this platform
//   - sink: Telemetry sink, may be nil
//   - logger: Structured logger, may be nil
//   - opts: Timing options, zero values get defaults
//
// Returns:
//   - *Manager: Manager ready for Bootstrap
func NewManager(st store.Store, id IdentityClient, provider push.Provider, sink Sink, logger *logging.Logger, opts Options) *Manager {
	if sink == nil {
		sink = nopSink{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.ReadyPollInterval <= 0 {
		opts.ReadyPollInterval = defaultReadyPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		store:    st,
		identity: id,
		provider: provider,
		sink:     sink,
		logger:   logger,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		loading:  true,
		alive:    true,
	}
	m.validator = &Validator{m: m}
	m.syncer = &SyncCoordinator{m: m}
	m.Subscribe(m.validator.onSessionChanged)
	return m
}

// Subscribe registers an event handler. Handlers are called synchronously
// at emission and must not block; they run outside the state mutex, so
// calling back into the manager is allowed.
func (m *Manager) Subscribe(fn func(Event)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subs = append(m.subs, fn)
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := State{Loading: m.loading, Authenticated: m.token != ""}
	if m.profile != nil {
		p := *m.profile
		st.Profile = &p
	}
	return st
}

// Login authenticates and establishes a session.
//
// The device's push identifier is attached when the provider can supply
// one; absence is valid. On success the token and any returned profile
// are published and persisted, and a notification sync is scheduled
// after the configured delay. Service errors are returned unchanged.
func (m *Manager) Login(ctx context.Context, creds identity.Credentials) (*identity.LoginResult, error) {
	if id := m.pushIdentifier(ctx); id != "" {
		creds.PushIdentifier = id
	}

	result, err := m.identity.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.token = result.Token
	m.profile = nil
	if result.User != nil {
		m.profile = &ProfileState{Profile: *result.User, Trust: TrustOptimistic}
	}
	m.generation++
	m.mu.Unlock()

	m.persistToken(ctx, result.Token)
	if result.User != nil {
		m.persistProfile(ctx, result.User)
		m.sink.WriteSessionEvent("login", result.User.ID)
	} else {
		m.sink.WriteSessionEvent("login", 0)
	}

	m.emit(EventSessionChanged)
	m.scheduleSync()
	return result, nil
}

// Register creates an account. It attaches the push identifier when
// obtainable and returns the raw service response. The session is not
// touched; callers log in separately.
func (m *Manager) Register(ctx context.Context, reg identity.Registration) (*identity.RegisterResult, error) {
	if id := m.pushIdentifier(ctx); id != "" {
		reg.PushIdentifier = id
	}
	return m.identity.Register(ctx, reg)
}

// Logout signs out.
//
// The push identifier unbind and the remote logout are best-effort; the
// local session and both persisted keys are cleared unconditionally
// afterwards, so a network failure during sign-out can never leave the
// client believing it still has a valid session.
func (m *Manager) Logout(ctx context.Context) {
	token := m.currentToken()
	if token != "" {
		if id, err := m.provider.LocalIdentifier(ctx); err == nil && id != "" {
			if err := m.identity.DeletePushIdentifier(ctx, token, id); err != nil {
				m.logger.Warn("push identifier unbind failed", "error", err)
			}
		} else if err != nil {
			m.logger.Debug("no push identifier to unbind", "error", err)
		}

		if err := m.identity.Logout(ctx, token); err != nil {
			m.logger.Warn("remote logout failed, clearing local session anyway", "error", err)
		}
	}

	m.clearLocal(ctx)
}

// Close tears the manager down: the liveness flag flips, pending timers
// and validations are released, and in-flight background work is waited
// out. Late results are discarded by the liveness check.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.alive = false
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
	return nil
}

// clearLocal drops the in-memory session and removes the persisted keys.
func (m *Manager) clearLocal(ctx context.Context) {
	m.mu.Lock()
	var userID int64
	if m.profile != nil {
		userID = m.profile.Profile.ID
	}
	m.token = ""
	m.profile = nil
	m.generation++
	m.mu.Unlock()

	if err := m.store.Remove(ctx, store.KeyUserToken); err != nil {
		m.logger.Warn("removing persisted token", "error", err)
	}
	if err := m.store.Remove(ctx, store.KeyUser); err != nil {
		m.logger.Warn("removing persisted profile", "error", err)
	}

	m.sink.WriteSessionEvent("logout", userID)
	m.emit(EventSessionChanged)
}

// spawn starts tracked background work. The liveness check and the
// WaitGroup increment happen under the lock so Close cannot start
// waiting between them; after Close no new work is admitted.
func (m *Manager) spawn(f func()) bool {
	m.mu.Lock()
	if !m.alive {
		m.mu.Unlock()
		return false
	}
	m.wg.Add(1)
	m.mu.Unlock()
	go func() {
		defer m.wg.Done()
		f()
	}()
	return true
}

// scheduleSync runs the notification sync after the login delay, unless
// teardown happens first.
func (m *Manager) scheduleSync() {
	m.spawn(func() {
		t := time.NewTimer(m.opts.LoginSyncDelay)
		defer t.Stop()
		select {
		case <-m.ctx.Done():
			return
		case <-t.C:
		}
		if m.live() {
			m.syncer.Run()
		}
	})
}

// pushIdentifier resolves the local push identifier, best-effort.
func (m *Manager) pushIdentifier(ctx context.Context) string {
	id, err := m.provider.LocalIdentifier(ctx)
	if err != nil {
		m.logger.Debug("push identifier unavailable", "error", err)
		return ""
	}
	return id
}

// persistToken writes the token to the store. Failure is logged and
// tolerated; the in-memory session stands.
func (m *Manager) persistToken(ctx context.Context, token string) {
	if err := m.store.Set(ctx, store.KeyUserToken, token); err != nil {
		m.logger.Warn("persisting session token", "error", err)
	}
}

// persistProfile writes the serialised profile to the store.
func (m *Manager) persistProfile(ctx context.Context, p *identity.UserProfile) {
	data, err := json.Marshal(p)
	if err != nil {
		m.logger.Warn("encoding profile for cache", "error", err)
		return
	}
	if err := m.store.Set(ctx, store.KeyUser, string(data)); err != nil {
		m.logger.Warn("persisting profile", "error", err)
	}
}

// emit snapshots state and fans the event out to subscribers, outside
// the state mutex.
func (m *Manager) emit(kind EventKind) {
	evt := Event{Kind: kind, State: m.Snapshot()}

	m.subMu.Lock()
	subs := make([]func(Event), len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(evt)
	}
}

// current returns the token together with the generation it belongs to.
func (m *Manager) current() (string, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.generation
}

func (m *Manager) currentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// validatedUserID returns the cached profile's id, if any.
func (m *Manager) validatedUserID() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return 0, false
	}
	return m.profile.Profile.ID, true
}

func (m *Manager) live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive
}

// liveAt reports whether the manager is alive and gen is still the
// current generation. Background work checks this before committing.
func (m *Manager) liveAt(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive && m.generation == gen
}
