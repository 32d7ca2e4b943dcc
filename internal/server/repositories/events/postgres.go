package events

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

func (r *PostgresRepository) Create(ctx context.Context, event *models.Event) (int32, error) {
	query := `
		INSERT INTO events (title, date_time, tournament, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int32
	err := r.db.QueryRowContext(ctx, query, event.Title, event.DateTime, event.Tournament, event.Active).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	event.ID = id
	return id, nil
}

const selectEvent = `SELECT id, title, date_time, tournament, active FROM events`

func (r *PostgresRepository) Get(ctx context.Context, id int32) (*models.Event, error) {
	return r.getOne(ctx, selectEvent+` WHERE id = $1`, id)
}

func (r *PostgresRepository) LockForUpdate(ctx context.Context, id int32) (*models.Event, error) {
	return r.getOne(ctx, selectEvent+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id int32) (*models.Event, error) {
	e := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Title, &e.DateTime, &e.Tournament, &e.Active)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return e, nil
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]*models.Event, error) {
	query := selectEvent + ` WHERE ($1 = FALSE OR active) ORDER BY date_time, id`

	rows, err := r.db.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	result := make([]*models.Event, 0)
	for rows.Next() {
		e := &models.Event{}
		if err := rows.Scan(&e.ID, &e.Title, &e.DateTime, &e.Tournament, &e.Active); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return result, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id int32, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE events SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return dbx.ExpectOne(res)
}
