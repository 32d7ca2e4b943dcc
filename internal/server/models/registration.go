package models

import "time"

// Registration is a pending sign-up waiting for its token to be confirmed.
type Registration struct {
	Token        string
	SteamID      string
	Name         string
	Email        string
	PlayerTag    *string
	Rank         *string
	PasswordHash []byte
	PasswordSalt []byte
	CreatedAt    time.Time
}

// ExpiresAt returns the moment the registration stops being confirmable.
func (r *Registration) ExpiresAt(ttl time.Duration) time.Time {
	return r.CreatedAt.Add(ttl)
}

// Expired reports whether the registration is past its ttl at now.
func (r *Registration) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(r.ExpiresAt(ttl))
}
