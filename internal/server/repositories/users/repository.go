// Package users stores player profiles.
package users

import (
	"context"

	"github.com/nulldatamap/xthevent/internal/server/models"
)

type Repository interface {
	// Create inserts user with its preassigned ID (the account id).
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id int32) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsBySteamID(ctx context.Context, steamID string) (bool, error)
}
