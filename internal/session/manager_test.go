package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/oPeras1/DoorBell-System-sub001/internal/identity"
	"github.com/oPeras1/DoorBell-System-sub001/internal/store"
)

func TestLogin_EstablishesSession(t *testing.T) {
	st := newFakeStore()
	user := &identity.UserProfile{ID: 1, Username: "alice", Type: identity.TypeGuest}
	id := &fakeIdentity{
		loginResult: &identity.LoginResult{Token: "t1", User: user},
		profile:     user,
	}
	p := newFakeProvider()
	m := newTestManager(t, st, id, p)

	result, err := m.Login(context.Background(), identity.Credentials{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token != "t1" {
		t.Errorf("Token = %q, want t1", result.Token)
	}

	// The push identifier rides along when the provider has one.
	if len(id.loginCreds) != 1 || id.loginCreds[0].PushIdentifier != "install-1" {
		t.Errorf("login credentials = %+v", id.loginCreds)
	}

	state := m.Snapshot()
	if !state.Authenticated {
		t.Error("Authenticated = false after login")
	}
	if state.Profile == nil || state.Profile.Profile.ID != 1 {
		t.Fatalf("Profile = %+v", state.Profile)
	}

	if tok, ok := st.get(store.KeyUserToken); !ok || tok != "t1" {
		t.Errorf("persisted token = %q (present=%v)", tok, ok)
	}
	raw, ok := st.get(store.KeyUser)
	if !ok {
		t.Fatal("profile not persisted")
	}
	var cached identity.UserProfile
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("persisted profile invalid: %v", err)
	}
	if cached.ID != 1 || cached.Type != identity.TypeGuest {
		t.Errorf("persisted profile = %+v, want id 1 type GUEST", cached)
	}

	// A sync pass runs after the login delay.
	waitIdle(m)
	p.mu.Lock()
	binds := len(p.bindCalls)
	p.mu.Unlock()
	if binds == 0 {
		t.Error("no sync pass ran after login")
	}
}

func TestLogin_ErrorPropagatedUnchanged(t *testing.T) {
	wantErr := &identity.StatusError{Status: http.StatusUnauthorized, Message: "bad credentials"}
	id := &fakeIdentity{loginErr: wantErr}
	m := newTestManager(t, newFakeStore(), id, newFakeProvider())

	_, err := m.Login(context.Background(), identity.Credentials{Username: "alice"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Login() error = %v, want %v", err, wantErr)
	}
	if m.Snapshot().Authenticated {
		t.Error("Authenticated = true after failed login")
	}
}

func TestLogin_ProviderFailureStillLogsIn(t *testing.T) {
	id := &fakeIdentity{loginResult: &identity.LoginResult{Token: "t1"}}
	p := newFakeProvider()
	p.idErr = errors.New("provider not ready")
	m := newTestManager(t, newFakeStore(), id, p)

	if _, err := m.Login(context.Background(), identity.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if len(id.loginCreds) != 1 || id.loginCreds[0].PushIdentifier != "" {
		t.Errorf("credentials = %+v, want no push identifier", id.loginCreds)
	}
}

func TestRegister_DoesNotTouchSession(t *testing.T) {
	id := &fakeIdentity{registerResult: &identity.RegisterResult{ID: 5, Username: "carol"}}
	m := newTestManager(t, newFakeStore(), id, newFakeProvider())

	result, err := m.Register(context.Background(), identity.Registration{Username: "carol", Password: "pw"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.ID != 5 {
		t.Errorf("ID = %d, want 5", result.ID)
	}
	if len(id.registered) != 1 || id.registered[0].PushIdentifier != "install-1" {
		t.Errorf("registration = %+v", id.registered)
	}
	if m.Snapshot().Authenticated {
		t.Error("Authenticated = true after register")
	}
}

func TestLogout_UnconditionalClear(t *testing.T) {
	st := newFakeStore()
	st.set(store.KeyUserToken, "t1")
	st.set(store.KeyUser, `{"id":1,"type":"GUEST"}`)

	id := &fakeIdentity{
		deleteErr: errors.New("unbind rejected"),
		logoutErr: errors.New("logout rejected"),
		fetchErr:  errors.New("offline"),
	}
	m := newTestManager(t, st, id, newFakeProvider())
	m.Bootstrap(context.Background())
	waitIdle(m)

	m.Logout(context.Background())

	state := m.Snapshot()
	if state.Authenticated {
		t.Error("Authenticated = true after logout")
	}
	if state.Profile != nil {
		t.Errorf("Profile = %+v after logout", state.Profile)
	}
	if _, ok := st.get(store.KeyUserToken); ok {
		t.Error("persisted token survived logout")
	}
	if _, ok := st.get(store.KeyUser); ok {
		t.Error("persisted profile survived logout")
	}

	_, logout, del, _ := id.counts()
	if del != 1 || logout != 1 {
		t.Errorf("unbind calls = %d, logout calls = %d, want 1 and 1", del, logout)
	}
}

func TestLogout_WithoutSessionSkipsRemoteCalls(t *testing.T) {
	id := &fakeIdentity{}
	m := newTestManager(t, newFakeStore(), id, newFakeProvider())

	m.Logout(context.Background())

	_, logout, del, _ := id.counts()
	if logout != 0 || del != 0 {
		t.Errorf("remote calls made with no session: logout=%d delete=%d", logout, del)
	}
}

func TestLogin_SupersedesInFlightValidation(t *testing.T) {
	st := newFakeStore()
	st.set(store.KeyUserToken, "t1")

	gate := make(chan struct{})
	id := &fakeIdentity{
		fetchGate:       gate,
		fetchErrByToken: map[string]error{"t1": &identity.StatusError{Status: http.StatusNotFound}},
		profile:         &identity.UserProfile{ID: 2, Type: identity.TypeHouser},
		loginResult:     &identity.LoginResult{Token: "t2", User: &identity.UserProfile{ID: 2, Type: identity.TypeHouser}},
	}
	m := newTestManager(t, st, id, newFakeProvider())

	m.Bootstrap(context.Background())

	// A fresh login lands while t1's doomed validation is in flight.
	if _, err := m.Login(context.Background(), identity.Credentials{Username: "bob"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// t1's 404 resolves now; it must not log t2 out.
	close(gate)
	waitIdle(m)

	state := m.Snapshot()
	if !state.Authenticated {
		t.Error("Authenticated = false, superseded 404 tore down the new session")
	}
	if tok, _ := st.get(store.KeyUserToken); tok != "t2" {
		t.Errorf("persisted token = %q, want t2", tok)
	}
}

func TestEvents_SessionChangedEmitted(t *testing.T) {
	id := &fakeIdentity{loginResult: &identity.LoginResult{Token: "t1"}, fetchErr: errors.New("offline")}
	m := newTestManager(t, newFakeStore(), id, newFakeProvider())

	var mu sync.Mutex
	var kinds []EventKind
	var authAtLogin bool
	m.Subscribe(func(evt Event) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, evt.Kind)
		if evt.Kind == EventSessionChanged && evt.State.Authenticated {
			authAtLogin = true
		}
	})

	if _, err := m.Login(context.Background(), identity.Credentials{Username: "alice"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	waitIdle(m)

	mu.Lock()
	defer mu.Unlock()
	if len(kinds) == 0 || kinds[0] != EventSessionChanged {
		t.Errorf("events = %v, want sessionChanged first", kinds)
	}
	if !authAtLogin {
		t.Error("sessionChanged snapshot never showed an authenticated state")
	}
}

func TestClose_DiscardsLateResults(t *testing.T) {
	st := newFakeStore()
	st.set(store.KeyUserToken, "t1")

	gate := make(chan struct{})
	id := &fakeIdentity{
		profile:   &identity.UserProfile{ID: 1, Type: identity.TypeGuest},
		fetchGate: gate,
	}
	m := NewManager(st, id, newFakeProvider(), nil, testLogger(), Options{})

	m.Bootstrap(context.Background())

	done := make(chan struct{})
	go func() {
		_ = m.Close()
		close(done)
	}()
	close(gate)
	<-done

	if state := m.Snapshot(); state.Profile != nil && state.Profile.Trust == TrustValidated {
		t.Error("validation committed after Close")
	}
}

func TestClose_RejectsNewBackgroundWork(t *testing.T) {
	m := newTestManager(t, newFakeStore(), &fakeIdentity{}, newFakeProvider())

	// Hammer the tracked-work path while teardown runs so the
	// goroutine admission check and Close cannot interleave badly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			m.scheduleSync()
		}
	}()

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	<-done

	if m.spawn(func() {}) {
		t.Error("spawn() admitted work after Close")
	}
}
