// Package credentials keeps the Test Central session between outpost
// invocations, so `outpost login` can be run once interactively and `outpost
// run` reuse the session until it expires.
package credentials

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/testcentral/outpost/internal/models"
)

// ErrNotFound is returned when no session is stored.
var ErrNotFound = errors.New("session not found")

type Store interface {
	Save(s models.Session) error

	// Load returns ErrNotFound if no session is stored.
	Load() (*models.Session, error)

	// Delete returns nil if no session exists.
	Delete() error

	Exists() bool
}

// ExpiresAt reads the exp claim of token without verifying its signature.
// ok is false when token is not a JWT or carries no expiry.
func ExpiresAt(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	t, err := claims.GetExpirationTime()
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return t.Time, true
}

// Usable reports whether s can still be sent to Test Central at now. Opaque
// tokens are assumed usable; Test Central rejects them otherwise.
func Usable(s *models.Session, now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	exp, ok := ExpiresAt(s.Token)
	if !ok {
		return true
	}
	return now.Before(exp)
}
