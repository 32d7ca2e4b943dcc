package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (int32, error) {
	query := `
		INSERT INTO accounts (email, password_hash, password_salt)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int32
	err := r.db.QueryRowContext(ctx, query, account.Email, account.PasswordHash, account.PasswordSalt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	account.ID = id
	return id, nil
}

const selectAccount = `
		SELECT id, email, password_hash, password_salt, session_token, expiration
		FROM accounts
`

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+`		WHERE email = $1`, email)
}

func (r *PostgresRepository) GetBySessionToken(ctx context.Context, token string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+`		WHERE session_token = $1`, token)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.PasswordSalt, &a.SessionToken, &a.Expiration)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return a, nil
}

func (r *PostgresRepository) SetSession(ctx context.Context, id int32, token string, expiration time.Time) error {
	query := `
		UPDATE accounts SET session_token = $2, expiration = $3
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, token, expiration)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return dbx.ExpectOne(res)
}

func (r *PostgresRepository) ClearExpiredSession(ctx context.Context, token string, now time.Time) (bool, error) {
	query := `
		UPDATE accounts SET session_token = NULL, expiration = NULL
		WHERE session_token = $1 AND expiration <= $2
	`
	res, err := r.db.ExecContext(ctx, query, token, now)
	if err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	n, err := dbx.Affected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepository) ClearSession(ctx context.Context, token string) error {
	query := `
		UPDATE accounts SET session_token = NULL, expiration = NULL
		WHERE session_token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var found bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return found, nil
}
