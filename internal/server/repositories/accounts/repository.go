// Package accounts declares the repository contract for credentials and the
// session token stored on each account.
package accounts

import (
	"context"
	"time"

	"github.com/nulldatamap/xthevent/internal/server/models"
)

// Repository defines operations on accounts and their session tokens.
type Repository interface {
	// Create inserts a new account and returns its generated id.
	Create(ctx context.Context, account *models.Account) (int32, error)

	// GetByEmail returns the account registered under email, or a not-found
	// error.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetBySessionToken returns the account currently holding token.
	GetBySessionToken(ctx context.Context, token string) (*models.Account, error)

	// SetSession overwrites the session of account id.
	SetSession(ctx context.Context, id int32, token string, expiration time.Time) error

	// ClearExpiredSession clears token only if it is expired at now. It
	// reports whether a row was changed.
	ClearExpiredSession(ctx context.Context, token string, now time.Time) (bool, error)

	// ClearSession removes token wherever it is stored. Clearing an unknown
	// token is not an error.
	ClearSession(ctx context.Context, token string) error

	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
