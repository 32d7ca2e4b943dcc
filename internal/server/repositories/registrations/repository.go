// Package registrations stores pending sign-ups until their token is
// confirmed or expires.
package registrations

import (
	"context"
	"time"

	"github.com/nulldatamap/xthevent/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, reg *models.Registration) error

	// FindForUpdate returns the registration for token and locks its row
	// until the surrounding transaction ends. Must run inside a transaction.
	FindForUpdate(ctx context.Context, token string) (*models.Registration, error)

	Delete(ctx context.Context, token string) error

	// DeleteExpiredConflicting removes registrations created at or before
	// cutoff that share email or steamID. It returns the number removed.
	DeleteExpiredConflicting(ctx context.Context, email, steamID string, cutoff time.Time) (int64, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsBySteamID(ctx context.Context, steamID string) (bool, error)
}
