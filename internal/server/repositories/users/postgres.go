package users

import (
	"context"
	"fmt"

	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, steam_id, name, email, player_tag, rank)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.SteamID, user.Name, user.Email, user.PlayerTag, user.Rank)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int32) (*models.User, error) {
	query :=
		`SELECT id, steam_id, name, email, player_tag, rank FROM users
		 WHERE id = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.SteamID, &user.Name, &user.Email, &user.PlayerTag, &user.Rank)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return user, nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *PostgresRepository) ExistsBySteamID(ctx context.Context, steamID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE steam_id = $1)`, steamID)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return found, nil
}
