package repomanager

import (
	"context"
	"database/sql"

	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/server/repositories/accounts"
	"github.com/nulldatamap/xthevent/internal/server/repositories/events"
	"github.com/nulldatamap/xthevent/internal/server/repositories/registrations"
	"github.com/nulldatamap/xthevent/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so the caller
// decides whether they run on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Users(db dbx.DBTX) users.Repository
	Registrations(db dbx.DBTX) registrations.Repository
	Events(db dbx.DBTX) events.Repository
}
