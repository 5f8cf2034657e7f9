package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Well-known keys. The token and user keys match what the backend's other
// clients persist, so a migrated install keeps its session.
const (
	// KeyUserToken holds the opaque bearer token.
	KeyUserToken = "userToken"

	// KeyUser holds the serialised cached profile.
	KeyUser = "user"

	// KeyPushPromptShown holds the sentinel "1" once the notification
	// permission prompt has been shown on web platforms.
	KeyPushPromptShown = "pushPromptShown"

	// KeyInstallID holds the per-install UUID used as the push identifier.
	KeyInstallID = "installID"
)

// PromptShownSentinel is the value stored under KeyPushPromptShown.
const PromptShownSentinel = "1"

// Store defines durable key-value storage.
//
// Get reports absence via ok=false with a nil error; an error means the
// read itself failed. Callers in the session core treat both the same way.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// SQLiteStore implements Store on the client_store table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves the value for a key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM client_store WHERE key = ?", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores a value under a key, replacing any existing value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

// Remove deletes a key. Removing an absent key is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM client_store WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("removing key %q: %w", key, err)
	}
	return nil
}

// InstallID returns this install's stable identifier, generating and
// persisting a new UUID on first use. The identifier doubles as the push
// identifier registered with the backend.
func InstallID(ctx context.Context, s Store) (string, error) {
	id, ok, err := s.Get(ctx, KeyInstallID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := s.Set(ctx, KeyInstallID, id); err != nil {
		return "", err
	}
	return id, nil
}
