package httpapi

import (
	"context"
	"time"

	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/logging"
	"github.com/nulldatamap/xthevent/internal/server/models"
	"github.com/nulldatamap/xthevent/internal/server/services"
)

// SessionManager is the part of services.SessionService the API uses.
type SessionManager interface {
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Validate(ctx context.Context, token string) (int32, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, accountID int32) (*models.User, error)
}

// RegistrationFlow is the part of services.RegistrationService the API uses.
type RegistrationFlow interface {
	Request(ctx context.Context, req services.RegistrationRequest) (string, error)
	Confirm(ctx context.Context, token string) (int32, error)
}

// RosterManager is the part of services.RosterService the API uses.
type RosterManager interface {
	Signup(ctx context.Context, eventID, playerID int32) error
	Confirm(ctx context.Context, eventID, playerID int32) error
	Withdraw(ctx context.Context, eventID, playerID int32) error
	CreateEvent(ctx context.Context, title string, dateTime time.Time, tournament bool) (*models.Event, error)
	GetEvent(ctx context.Context, id int32) (*models.Event, error)
	ListEvents(ctx context.Context, activeOnly bool) ([]*models.Event, error)
	SetActive(ctx context.Context, id int32, active bool) error
}

// Handler serves the JSON API. Each service call is retried under retry
// when the store reports a transient failure.
type Handler struct {
	sessions      SessionManager
	registrations RegistrationFlow
	roster        RosterManager
	logger        logging.Logger
	retry         dbx.RetryPolicy
	decoder       *decoder
}

func NewHandler(s SessionManager, r RegistrationFlow, rm RosterManager, logger logging.Logger, retry dbx.RetryPolicy) *Handler {
	h := &Handler{
		sessions:      s,
		registrations: r,
		roster:        rm,
		logger:        logger,
		retry:         retry,
		decoder:       newDecoder(),
	}
	if h.retry.OnRetry == nil {
		h.retry.OnRetry = func(err error, wait time.Duration) {
			logger.Warn(context.Background(), "store unavailable, retrying", "error", err, "wait", wait)
		}
	}
	return h
}

func (h *Handler) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return dbx.Retry(ctx, h.retry, fn)
}
