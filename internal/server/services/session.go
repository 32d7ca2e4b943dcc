package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

// sessionTokenBytes is the amount of randomness in a session token; the
// token itself is its hex encoding.
const sessionTokenBytes = 32

// Session is an issued session token.
type Session struct {
	Token     string
	AccountID int32
	ExpiresAt time.Time
}

// SessionService authenticates accounts and manages their single session
// token. Expiry is absolute: validating a token never extends it.
type SessionService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	clock        clock.Clock
	logger       logging.Logger
	sessionTTL   time.Duration
	storeTimeout time.Duration
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, clk clock.Clock, logger logging.Logger, cfg *config.Config) *SessionService {
	return &SessionService{
		db:           db,
		repomanager:  m,
		clock:        clk,
		logger:       logger.With("module", "sessions"),
		sessionTTL:   cfg.SessionTTL,
		storeTimeout: cfg.StoreTimeout,
	}
}

// Login verifies email and password and issues a new session token,
// replacing any session the account already had. Unknown email and wrong
// password are indistinguishable: both return common.ErrInvalidCredential
// after a full key derivation.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			cryptox.VerifyPassword(pw, common.GenerateRandByteArray(cryptox.SaltLength), nil)
			return nil, common.ErrInvalidCredential
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	if !cryptox.VerifyPassword(pw, account.PasswordSalt, account.PasswordHash) {
		return nil, common.ErrInvalidCredential
	}

	token, err := common.MakeRandHexString(sessionTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating session token: %w", err)
	}
	expiresAt := s.clock.Now().Add(s.sessionTTL)

	if err := s.repomanager.Accounts(s.db).SetSession(ctx, account.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("error storing session: %w", err)
	}

	s.logger.Debug(ctx, "session issued", "account_id", account.ID)
	return &Session{Token: token, AccountID: account.ID, ExpiresAt: expiresAt}, nil
}

// Validate returns the account owning token. An expired token is cleared and
// reported as common.ErrExpired once; afterwards it is common.ErrInvalidToken.
func (s *SessionService) Validate(ctx context.Context, token string) (int32, error) {
	if token == "" {
		return 0, common.ErrInvalidToken
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, common.ErrInvalidToken
		}
		return 0, fmt.Errorf("error loading session: %w", err)
	}

	now := s.clock.Now()
	if account.SessionExpired(now) {
		if _, err := repo.ClearExpiredSession(ctx, token, now); err != nil {
			return 0, fmt.Errorf("error clearing expired session: %w", err)
		}
		return 0, common.ErrExpired
	}

	return account.ID, nil
}

// Logout clears token. Unknown or already cleared tokens are not an error.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repomanager.Accounts(s.db).ClearSession(ctx, token); err != nil {
		return fmt.Errorf("error clearing session: %w", err)
	}
	return nil
}

// Profile returns the user profile that shares accountID.
func (s *SessionService) Profile(ctx context.Context, accountID int32) (*models.User, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.repomanager.Users(s.db).Get(ctx, accountID)
}
