package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nulldatamap/xthevent/internal/common"
	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/logging"
	"github.com/nulldatamap/xthevent/internal/server/config"
	"github.com/nulldatamap/xthevent/internal/server/models"
	"github.com/nulldatamap/xthevent/internal/server/repositories/events"
	"github.com/nulldatamap/xthevent/internal/server/repositories/repomanager"
)

// RosterService manages events and the players signed up for them.
//
// Every roster mutation locks the event row first, so mutations of one
// event are serialized while different events proceed independently.
type RosterService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	logger       logging.Logger
	storeTimeout time.Duration
}

func NewRosterService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, cfg *config.Config) *RosterService {
	return &RosterService{
		db:           db,
		repomanager:  m,
		logger:       logger.With("module", "roster"),
		storeTimeout: cfg.StoreTimeout,
	}
}

// Signup appends playerID to the unconfirmed list of eventID.
func (s *RosterService) Signup(ctx context.Context, eventID, playerID int32) error {
	return s.mutate(ctx, eventID, playerID, func(ctx context.Context, repo events.Repository) error {
		_, err := repo.FindPlayer(ctx, eventID, playerID)
		switch {
		case err == nil:
			return common.ErrAlreadyRegistered
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		if err := repo.AddPlayer(ctx, eventID, playerID); err != nil {
			if errors.Is(err, common.ErrConflict) {
				return common.ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
}

// Confirm moves playerID from the unconfirmed to the confirmed list.
func (s *RosterService) Confirm(ctx context.Context, eventID, playerID int32) error {
	return s.mutate(ctx, eventID, playerID, func(ctx context.Context, repo events.Repository) error {
		entry, err := repo.FindPlayer(ctx, eventID, playerID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrNotPending
			}
			return err
		}
		if entry.Confirmed {
			return common.ErrNotPending
		}

		n, err := repo.ConfirmPlayer(ctx, eventID, playerID)
		if err != nil {
			return err
		}
		return checkSingleRow(n, common.ErrNotPending)
	})
}

// Withdraw removes playerID from whichever list holds it.
func (s *RosterService) Withdraw(ctx context.Context, eventID, playerID int32) error {
	return s.mutate(ctx, eventID, playerID, func(ctx context.Context, repo events.Repository) error {
		n, err := repo.RemovePlayer(ctx, eventID, playerID)
		if err != nil {
			return err
		}
		return checkSingleRow(n, common.ErrNotRegistered)
	})
}

func checkSingleRow(n int64, none error) error {
	switch {
	case n == 0:
		return none
	case n > 1:
		return fmt.Errorf("%w: %d roster rows changed", common.ErrInvariantViolation, n)
	}
	return nil
}

func (s *RosterService) mutate(ctx context.Context, eventID, playerID int32, fn func(context.Context, events.Repository) error) error {
	if eventID <= 0 {
		return fmt.Errorf("%w: event %d", common.ErrNotFound, eventID)
	}
	if playerID <= 0 {
		return fmt.Errorf("%w: player id must be positive", common.ErrValidation)
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Events(tx)

		event, err := repo.LockForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.Active {
			return common.ErrEventInactive
		}

		return fn(ctx, repo)
	})
}

// CreateEvent stores a new, active event.
func (s *RosterService) CreateEvent(ctx context.Context, title string, dateTime time.Time, tournament bool) (*models.Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if dateTime.IsZero() {
		return nil, fmt.Errorf("%w: date_time is required", common.ErrValidation)
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	event := &models.Event{
		Title:              title,
		DateTime:           dateTime.UTC(),
		Tournament:         tournament,
		Active:             true,
		UnconfirmedPlayers: []int32{},
		ConfirmedPlayers:   []int32{},
	}
	if _, err := s.repomanager.Events(s.db).Create(ctx, event); err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}

	s.logger.Info(ctx, "event created", "event_id", event.ID, "title", event.Title)
	return event, nil
}

// GetEvent returns the event with both roster lists, read from one snapshot.
func (s *RosterService) GetEvent(ctx context.Context, id int32) (*models.Event, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var event *models.Event
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := dbx.WithTx(ctx, s.db, opts, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Events(tx)

		e, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		e.UnconfirmedPlayers, e.ConfirmedPlayers, err = repo.Roster(ctx, id)
		if err != nil {
			return err
		}
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// ListEvents returns events ordered by date, without rosters.
func (s *RosterService) ListEvents(ctx context.Context, activeOnly bool) ([]*models.Event, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.repomanager.Events(s.db).List(ctx, activeOnly)
}

// SetActive opens or closes an event for roster changes.
func (s *RosterService) SetActive(ctx context.Context, id int32, active bool) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repomanager.Events(s.db).SetActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.Info(ctx, "event activity changed", "event_id", id, "active", active)
	return nil
}
