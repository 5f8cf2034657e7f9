package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/oPeras1/DoorBell-System-sub001/internal/identity"
	"github.com/oPeras1/DoorBell-System-sub001/internal/store"
)

func TestValidator_ForcedLogoutOnAuthInvalid(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			st := newFakeStore()
			st.set(store.KeyUserToken, "t1")
			st.set(store.KeyUser, `{"id":1,"type":"GUEST"}`)

			id := &fakeIdentity{fetchErr: &identity.StatusError{Status: status}}
			m := newTestManager(t, st, id, newFakeProvider())

			m.Bootstrap(context.Background())
			waitIdle(m)

			state := m.Snapshot()
			if state.Authenticated {
				t.Errorf("Authenticated = true after %d", status)
			}
			if state.Profile != nil {
				t.Errorf("Profile = %+v, want nil after %d", state.Profile, status)
			}
			if _, ok := st.get(store.KeyUserToken); ok {
				t.Error("persisted token survived forced logout")
			}
			if _, ok := st.get(store.KeyUser); ok {
				t.Error("persisted profile survived forced logout")
			}
		})
	}
}

func TestValidator_TransientFailureKeepsSession(t *testing.T) {
	tests := []struct {
		name     string
		fetchErr error
	}{
		{name: "server error", fetchErr: &identity.StatusError{Status: http.StatusInternalServerError}},
		{name: "network error", fetchErr: errors.New("dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore()
			st.set(store.KeyUserToken, "t1")
			st.set(store.KeyUser, `{"id":1,"type":"HOUSER"}`)

			id := &fakeIdentity{fetchErr: tt.fetchErr}
			m := newTestManager(t, st, id, newFakeProvider())

			m.Bootstrap(context.Background())
			waitIdle(m)

			state := m.Snapshot()
			if !state.Authenticated {
				t.Error("Authenticated = false, transient failure must keep the session")
			}
			if state.Profile == nil || state.Profile.Trust != TrustOptimistic {
				t.Errorf("Profile = %+v, want optimistic cached profile", state.Profile)
			}
			if _, ok := st.get(store.KeyUserToken); !ok {
				t.Error("persisted token removed on transient failure")
			}
		})
	}
}

func TestValidator_SuccessPromotesAndPersists(t *testing.T) {
	st := newFakeStore()
	st.set(store.KeyUserToken, "t1")

	id := &fakeIdentity{profile: &identity.UserProfile{ID: 7, Username: "bob", Type: identity.TypeHouser, Muted: true}}
	m := newTestManager(t, st, id, newFakeProvider())

	m.Bootstrap(context.Background())
	waitIdle(m)

	state := m.Snapshot()
	if state.Profile == nil || state.Profile.Trust != TrustValidated {
		t.Fatalf("Profile = %+v, want validated", state.Profile)
	}
	if state.Profile.Profile.Username != "bob" || !state.Profile.Profile.Muted {
		t.Errorf("Profile = %+v", state.Profile.Profile)
	}

	raw, ok := st.get(store.KeyUser)
	if !ok {
		t.Fatal("validated profile was not persisted")
	}
	var cached identity.UserProfile
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("persisted profile invalid: %v", err)
	}
	if cached.ID != 7 || cached.Type != identity.TypeHouser {
		t.Errorf("persisted profile = %+v", cached)
	}
}

func TestValidator_SupersededRunDiscarded(t *testing.T) {
	st := newFakeStore()
	st.set(store.KeyUserToken, "t1")

	gate := make(chan struct{})
	id := &fakeIdentity{
		profile:   &identity.UserProfile{ID: 1, Type: identity.TypeGuest},
		fetchGate: gate,
	}
	m := newTestManager(t, st, id, newFakeProvider())

	m.Bootstrap(context.Background())

	// Log out while the validation fetch is still in flight.
	m.Logout(context.Background())
	close(gate)
	waitIdle(m)

	state := m.Snapshot()
	if state.Authenticated {
		t.Error("Authenticated = true, superseded validation was committed")
	}
	if state.Profile != nil {
		t.Errorf("Profile = %+v, want nil", state.Profile)
	}
}

func TestValidator_NoFetchWithoutSession(t *testing.T) {
	id := &fakeIdentity{}
	m := newTestManager(t, newFakeStore(), id, newFakeProvider())

	m.Bootstrap(context.Background())
	waitIdle(m)

	fetch, _, _, _ := id.counts()
	if fetch != 0 {
		t.Errorf("FetchProfile called %d times with no session", fetch)
	}
}
