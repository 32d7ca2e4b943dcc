package models

import "time"

// Account holds login credentials and the single active session of a user.
// SessionToken and Expiration are nil when no session has been issued.
type Account struct {
	ID           int32
	Email        string
	PasswordHash []byte
	PasswordSalt []byte
	SessionToken *string
	Expiration   *time.Time
}

// SessionExpired reports whether the session is unusable at now.
// An account without an expiration is treated as expired.
func (a *Account) SessionExpired(now time.Time) bool {
	return a.Expiration == nil || !now.Before(*a.Expiration)
}
