package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oPeras1/DoorBell-System-sub001/internal/identity"
)

// handleSession returns the current session snapshot.
func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Snapshot())
}

// handleLogin authenticates with the identity service and establishes a
// session. Service rejections are relayed with their original status so
// the UI can show them verbatim.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds identity.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeBadRequest(w, "invalid login payload")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	result, err := s.manager.Login(r.Context(), creds)
	if err != nil {
		s.writeIdentityError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRegister creates an account. The session is untouched; the UI
// logs in afterwards.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg identity.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeBadRequest(w, "invalid registration payload")
		return
	}
	if reg.Username == "" || reg.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}
	if _, err := identity.NormaliseBirthdate(reg.Birthdate); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := s.manager.Register(r.Context(), reg)
	if err != nil {
		s.writeIdentityError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleLogout signs out. Local state is cleared even when the remote
// calls fail, so this always succeeds from the UI's point of view.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.manager.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// writeIdentityError relays an identity service failure to the UI.
// Rejections keep their upstream status; transport failures become 502.
func (s *Server) writeIdentityError(w http.ResponseWriter, err error) {
	var se *identity.StatusError
	if errors.As(err, &se) {
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.Status)
		}
		writeError(w, se.Status, ErrCodeAuthFailed, msg)
		return
	}
	writeError(w, http.StatusBadGateway, "identity_unreachable", err.Error())
}
