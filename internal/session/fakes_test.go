package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oPeras1/DoorBell-System-sub001/internal/identity"
	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/config"
	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/logging"
	"github.com/oPeras1/DoorBell-System-sub001/internal/push"
)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	mu        sync.Mutex
	data      map[string]string
	getErr    error
	setErr    error
	removeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *fakeStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.data, key)
	return nil
}

func (s *fakeStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *fakeStore) set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// fakeIdentity records calls and returns scripted responses.
type fakeIdentity struct {
	mu sync.Mutex

	loginResult *identity.LoginResult
	loginErr    error
	loginCreds  []identity.Credentials

	registerResult *identity.RegisterResult
	registerErr    error
	registered     []identity.Registration

	logoutErr   error
	logoutCalls int

	profile *identity.UserProfile
	// fetchGate, when non-nil, blocks FetchProfile until closed.
	fetchGate chan struct{}
	fetchErr  error
	// fetchErrByToken overrides fetchErr for specific tokens.
	fetchErrByToken map[string]error
	fetchCalls      int

	deleteErr   error
	deleteCalls int

	refreshErr   error
	refreshCalls int
	refreshIDs   []string
}

func (f *fakeIdentity) Login(_ context.Context, creds identity.Credentials) (*identity.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCreds = append(f.loginCreds, creds)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

func (f *fakeIdentity) Register(_ context.Context, reg identity.Registration) (*identity.RegisterResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, reg)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.registerResult, nil
}

func (f *fakeIdentity) Logout(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeIdentity) FetchProfile(_ context.Context, token string) (*identity.UserProfile, error) {
	f.mu.Lock()
	gate := f.fetchGate
	f.fetchCalls++
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fetchErrByToken[token]; ok {
		return nil, err
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.profile, nil
}

func (f *fakeIdentity) DeletePushIdentifier(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeIdentity) RefreshPushIdentifier(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	f.refreshIDs = append(f.refreshIDs, id)
	return f.refreshErr
}

func (f *fakeIdentity) counts() (fetch, logout, del, refresh int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.logoutCalls, f.deleteCalls, f.refreshCalls
}

// fakeProvider is a scriptable push.Provider.
type fakeProvider struct {
	mu sync.Mutex

	platform   push.Platform
	ready      bool
	identifier string
	idErr      error

	permission push.Permission
	permErr    error

	requestCalls int
	requestErr   error

	bindCalls []int64
	bindErr   error

	handlers    []func(push.Event)
	onChangeErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		platform:   push.PlatformWeb,
		ready:      true,
		identifier: "install-1",
		permission: push.PermissionUndetermined,
	}
}

func (p *fakeProvider) Platform() push.Platform {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.platform
}

func (p *fakeProvider) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

func (p *fakeProvider) LocalIdentifier(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idErr != nil {
		return "", p.idErr
	}
	return p.identifier, nil
}

func (p *fakeProvider) PermissionState(_ context.Context) (push.Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.permErr != nil {
		return push.PermissionUndetermined, p.permErr
	}
	return p.permission, nil
}

func (p *fakeProvider) RequestPermission(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestCalls++
	return p.requestErr
}

func (p *fakeProvider) OnSubscriptionChange(handler func(push.Event)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onChangeErr != nil {
		return p.onChangeErr
	}
	p.handlers = append(p.handlers, handler)
	return nil
}

func (p *fakeProvider) BindIdentity(_ context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindCalls = append(p.bindCalls, userID)
	return p.bindErr
}

func (p *fakeProvider) fire(evt push.Event) {
	p.mu.Lock()
	handlers := make([]func(push.Event), len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.Unlock()
	for _, h := range handlers {
		h(evt)
	}
}

func (p *fakeProvider) requested() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requestCalls
}

func (p *fakeProvider) handlerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

// newTestManager builds a manager over the fakes with short timings.
func newTestManager(t *testing.T, st *fakeStore, id *fakeIdentity, p *fakeProvider) *Manager {
	t.Helper()
	m := NewManager(st, id, p, nil, testLogger(), Options{
		LoginSyncDelay:    time.Millisecond,
		ReadyPollInterval: time.Millisecond,
		ReadyWaitCeiling:  100 * time.Millisecond,
	})
	t.Cleanup(func() {
		_ = m.Close()
	})
	return m
}

// waitIdle waits for the manager's background work to drain.
func waitIdle(m *Manager) {
	m.wg.Wait()
}
