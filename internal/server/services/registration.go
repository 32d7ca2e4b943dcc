package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nulldatamap/xthevent/internal/common"
	"github.com/nulldatamap/xthevent/internal/cryptox"
	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/dependencies/clock"
	"github.com/nulldatamap/xthevent/internal/logging"
	"github.com/nulldatamap/xthevent/internal/server/config"
	"github.com/nulldatamap/xthevent/internal/server/models"
	"github.com/nulldatamap/xthevent/internal/server/repositories/repomanager"
)

const registrationTokenBytes = 32

// RegistrationRequest is a sign-up as submitted by a prospective player.
type RegistrationRequest struct {
	SteamID   string
	Name      string
	Email     string
	PlayerTag *string
	Rank      *string
	Password  string
}

// Notifier delivers a freshly issued registration token to its owner.
type Notifier interface {
	RegistrationIssued(ctx context.Context, email, token string, expiresAt time.Time) error
}

// LogNotifier records that a token was issued without revealing it. It
// stands in for mail delivery.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notifier")}
}

func (n *LogNotifier) RegistrationIssued(ctx context.Context, email, _ string, expiresAt time.Time) error {
	n.logger.Info(ctx, "registration token issued", "email", email, "expires_at", expiresAt)
	return nil
}

// RegistrationService runs the sign-up confirmation flow: Request stores a
// pending registration under a random token, Confirm turns it into an
// Account plus User exactly once.
type RegistrationService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	clock           clock.Clock
	notifier        Notifier
	logger          logging.Logger
	registrationTTL time.Duration
	storeTimeout    time.Duration
}

func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, clk clock.Clock, n Notifier, logger logging.Logger, cfg *config.Config) *RegistrationService {
	return &RegistrationService{
		db:              db,
		repomanager:     m,
		clock:           clk,
		notifier:        n,
		logger:          logger.With("module", "registrations"),
		registrationTTL: cfg.RegistrationTTL,
		storeTimeout:    cfg.StoreTimeout,
	}
}

// Request validates req, checks that neither the e-mail nor the Steam id is
// taken and stores a pending registration. It returns the confirmation token.
func (s *RegistrationService) Request(ctx context.Context, req RegistrationRequest) (string, error) {
	req.Email = normalizeEmail(req.Email)
	req.SteamID = strings.TrimSpace(req.SteamID)
	req.Name = strings.TrimSpace(req.Name)
	req.PlayerTag = trimOptional(req.PlayerTag)
	req.Rank = trimOptional(req.Rank)
	if req.Email == "" || req.SteamID == "" || req.Name == "" || req.Password == "" {
		return "", fmt.Errorf("%w: steam_id, name, email and password are required", common.ErrValidation)
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return "", fmt.Errorf("error generating salt: %w", err)
	}
	pw := []byte(req.Password)
	hash := cryptox.DerivePassword(pw, salt)
	common.WipeByteArray(pw)

	token, err := common.MakeRandHexString(registrationTokenBytes)
	if err != nil {
		return "", fmt.Errorf("error generating registration token: %w", err)
	}

	now := s.clock.Now()
	reg := &models.Registration{
		Token:        token,
		SteamID:      req.SteamID,
		Name:         req.Name,
		Email:        req.Email,
		PlayerTag:    req.PlayerTag,
		Rank:         req.Rank,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    now,
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		regs := s.repomanager.Registrations(tx)

		if _, err := regs.DeleteExpiredConflicting(ctx, reg.Email, reg.SteamID, now.Add(-s.registrationTTL)); err != nil {
			return err
		}

		taken, err := s.emailTaken(ctx, tx, reg.Email)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrDuplicateEmail
		}

		taken, err = s.steamIDTaken(ctx, tx, reg.SteamID)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrDuplicateSteamID
		}

		return regs.Create(ctx, reg)
	})
	if err != nil {
		err = mapDuplicate(err)
		if common.IsDuplicate(err) {
			s.logger.Info(ctx, "registration rejected", "email", reg.Email, "reason", err)
		}
		return "", err
	}

	if err := s.notifier.RegistrationIssued(ctx, reg.Email, token, reg.ExpiresAt(s.registrationTTL)); err != nil {
		s.logger.Warn(ctx, "notifier failed", "email", reg.Email, "error", err)
	}

	return token, nil
}

func (s *RegistrationService) emailTaken(ctx context.Context, tx dbx.DBTX, email string) (bool, error) {
	// Pending rows first: Confirm deletes the registration in the same commit
	// that creates the account, so a row gone here is visible below.
	checks := []func(context.Context, string) (bool, error){
		s.repomanager.Registrations(tx).ExistsByEmail,
		s.repomanager.Accounts(tx).ExistsByEmail,
		s.repomanager.Users(tx).ExistsByEmail,
	}
	return anyTrue(ctx, email, checks)
}

func (s *RegistrationService) steamIDTaken(ctx context.Context, tx dbx.DBTX, steamID string) (bool, error) {
	checks := []func(context.Context, string) (bool, error){
		s.repomanager.Registrations(tx).ExistsBySteamID,
		s.repomanager.Users(tx).ExistsBySteamID,
	}
	return anyTrue(ctx, steamID, checks)
}

func anyTrue(ctx context.Context, arg string, checks []func(context.Context, string) (bool, error)) (bool, error) {
	for _, check := range checks {
		found, err := check(ctx, arg)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// Confirm consumes token and creates the Account and User it describes,
// returning the new account id. An unknown or already consumed token is
// common.ErrNotFound. An expired one is deleted and reported as
// common.ErrExpired.
func (s *RegistrationService) Confirm(ctx context.Context, token string) (int32, error) {
	if token == "" {
		return 0, common.ErrNotFound
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var (
		accountID int32
		expired   bool
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		regs := s.repomanager.Registrations(tx)

		reg, err := regs.FindForUpdate(ctx, token)
		if err != nil {
			return err
		}

		if reg.Expired(s.clock.Now(), s.registrationTTL) {
			// Commit the removal; the caller still gets ErrExpired.
			expired = true
			return regs.Delete(ctx, token)
		}

		id, err := s.repomanager.Accounts(tx).Create(ctx, &models.Account{
			Email:        reg.Email,
			PasswordHash: reg.PasswordHash,
			PasswordSalt: reg.PasswordSalt,
		})
		if err != nil {
			return err
		}

		user := &models.User{
			ID:        id,
			SteamID:   reg.SteamID,
			Name:      reg.Name,
			Email:     reg.Email,
			PlayerTag: reg.PlayerTag,
			Rank:      reg.Rank,
		}
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}

		if err := regs.Delete(ctx, token); err != nil {
			return err
		}

		accountID = id
		return nil
	})
	if err != nil {
		return 0, mapDuplicate(err)
	}
	if expired {
		return 0, common.ErrExpired
	}

	s.logger.Info(ctx, "registration confirmed", "account_id", accountID)
	return accountID, nil
}

// trimOptional trims an optional field; blank becomes nil.
func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	return common.StringPtr(strings.TrimSpace(*v))
}

// mapDuplicate turns a unique violation raised by a concurrent writer into
// the matching duplicate error.
func mapDuplicate(err error) error {
	if !errors.Is(err, common.ErrConflict) {
		return err
	}
	switch dbx.ConstraintName(err) {
	case "accounts_email_key", "users_email_key", "registrations_email_key":
		return fmt.Errorf("%w: %v", common.ErrDuplicateEmail, err)
	case "users_steam_id_key", "registrations_steam_id_key":
		return fmt.Errorf("%w: %v", common.ErrDuplicateSteamID, err)
	}
	return err
}
