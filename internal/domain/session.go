package domain

import (
	"errors"
	"time"
)

// DefaultSessionLease sits under the external tool's own 30 minute idle timeout.
const DefaultSessionLease = 29 * time.Minute

var ErrIncompleteCredentials = errors.New("credentials are incomplete")

type Credentials struct {
	Domain         string
	Email          string
	SecretKey      string
	MasterPassword string
}

func (c Credentials) Validate() error {
	if c.Domain == "" || c.Email == "" || c.SecretKey == "" || c.MasterPassword == "" {
		return ErrIncompleteCredentials
	}

	return nil
}

// Session is never refreshed in place: renewal means signing in again.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewSession(token string, issuedAt time.Time, lease time.Duration) Session {
	return Session{Token: token, ExpiresAt: issuedAt.Add(lease)}
}

// IsValid reports whether now is strictly before the expiration instant.
func (s Session) IsValid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

func (s Session) Remaining(now time.Time) time.Duration {
	if !s.IsValid(now) {
		return 0
	}

	return s.ExpiresAt.Sub(now)
}
