package session

import (
	"time"
)

// CookieName is the session cookie handed to browsers.
const CookieName = "acroyoga.sid"

// State tags what kind of session this is. A session is anonymous until
// a successful login upgrades it.
type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// Profile is the snapshot of the logged-in user kept on the session.
// It is what /api/auth/session returns; the full row stays in Postgres.
type Profile struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsMember bool   `json:"is_member"`
	IsAdmin  bool   `json:"is_admin"`
}

// Session is the server-side session record.
type Session struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	Profile    *Profile  `json:"profile,omitempty"`
	VisitCount int       `json:"visit_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Authenticated reports whether a login upgraded this session.
func (s *Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.Profile != nil
}

// Authenticate upgrades the session with the given profile snapshot.
func (s *Session) Authenticate(profile Profile) {
	s.State = StateAuthenticated
	s.Profile = &profile
}
