package identity

// UserType classifies a household member in the directory.
type UserType string

// User types as the directory service reports them.
const (
	// TypeKnowledger administers the household and its door policies.
	TypeKnowledger UserType = "KNOWLEDGER"

	// TypeHouser is a resident member.
	TypeHouser UserType = "HOUSER"

	// TypeGuest has time-limited door access.
	TypeGuest UserType = "GUEST"
)

// UserProfile is the directory's view of a user.
//
// The client caches a copy locally; the cached copy is only trusted until
// the next successful revalidation against the service.
type UserProfile struct {
	ID              int64    `json:"id"`
	Username        string   `json:"username"`
	Type            UserType `json:"type"`
	Muted           bool     `json:"muted"`
	PushIdentifiers []string `json:"push_identifiers,omitempty"`
}

// Credentials are the login inputs.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// PushIdentifier is attached when the provider could supply one.
	// Absence is valid; the backend binds it later via the sync path.
	PushIdentifier string `json:"push_identifier,omitempty"`
}

// Registration is the sign-up payload.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// Birthdate is accepted in DD-MM-YYYY and submitted as YYYY-MM-DD.
	Birthdate string `json:"birthdate,omitempty"`

	PushIdentifier string `json:"push_identifier,omitempty"`
}

// LoginResult is the successful login response.
type LoginResult struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user,omitempty"`
}

// RegisterResult is the raw registration response, passed through to the
// caller unchanged.
type RegisterResult struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
