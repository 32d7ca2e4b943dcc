// Package events stores events and their rosters. A roster row records that
// a player signed up for an event and whether the signup was confirmed.
package events

import (
	"context"

	"github.com/nulldatamap/xthevent/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, event *models.Event) (int32, error)

	// Get returns the event without its roster.
	Get(ctx context.Context, id int32) (*models.Event, error)

	// LockForUpdate is Get plus a row lock held until the transaction ends.
	// Every roster mutation of the event goes through it first.
	LockForUpdate(ctx context.Context, id int32) (*models.Event, error)

	List(ctx context.Context, activeOnly bool) ([]*models.Event, error)
	SetActive(ctx context.Context, id int32, active bool) error

	// FindPlayer returns the roster row of playerID, or a not-found error.
	FindPlayer(ctx context.Context, eventID, playerID int32) (*models.RosterEntry, error)

	// AddPlayer appends playerID to the unconfirmed list.
	AddPlayer(ctx context.Context, eventID, playerID int32) error

	// ConfirmPlayer flips an unconfirmed row to confirmed and returns the
	// number of rows changed.
	ConfirmPlayer(ctx context.Context, eventID, playerID int32) (int64, error)

	// RemovePlayer deletes playerID from either list and returns the number
	// of rows removed.
	RemovePlayer(ctx context.Context, eventID, playerID int32) (int64, error)

	// Roster returns unconfirmed players in signup order and confirmed
	// players ordered by id.
	Roster(ctx context.Context, eventID int32) (unconfirmed, confirmed []int32, err error)
}
