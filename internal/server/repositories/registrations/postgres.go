package registrations

import (
	"context"
	"fmt"
	"time"

	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations
			(token, steam_id, name, email, player_tag, rank, password_hash, password_salt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		reg.Token, reg.SteamID, reg.Name, reg.Email, reg.PlayerTag, reg.Rank,
		reg.PasswordHash, reg.PasswordSalt, reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return nil
}

func (r *PostgresRepository) FindForUpdate(ctx context.Context, token string) (*models.Registration, error) {
	query := `
		SELECT token, steam_id, name, email, player_tag, rank, password_hash, password_salt, created_at
		FROM registrations
		WHERE token = $1
		FOR UPDATE
	`
	reg := &models.Registration{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&reg.Token, &reg.SteamID, &reg.Name, &reg.Email, &reg.PlayerTag, &reg.Rank,
		&reg.PasswordHash, &reg.PasswordSalt, &reg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return reg, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return dbx.ExpectOne(res)
}

func (r *PostgresRepository) DeleteExpiredConflicting(ctx context.Context, email, steamID string, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM registrations
		WHERE (email = $1 OR steam_id = $2) AND created_at <= $3
	`
	res, err := r.db.ExecContext(ctx, query, email, steamID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return dbx.Affected(res)
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE email = $1)`, email)
}

func (r *PostgresRepository) ExistsBySteamID(ctx context.Context, steamID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE steam_id = $1)`, steamID)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return found, nil
}
