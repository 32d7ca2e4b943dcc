package events

import (
	"context"
	"fmt"
	"slices"

	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/server/models"
)

func (r *PostgresRepository) FindPlayer(ctx context.Context, eventID, playerID int32) (*models.RosterEntry, error) {
	query := `
		SELECT event_id, player_id, confirmed
		FROM event_players
		WHERE event_id = $1 AND player_id = $2
	`
	e := &models.RosterEntry{}
	err := r.db.QueryRowContext(ctx, query, eventID, playerID).Scan(&e.EventID, &e.PlayerID, &e.Confirmed)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return e, nil
}

func (r *PostgresRepository) AddPlayer(ctx context.Context, eventID, playerID int32) error {
	query := `
		INSERT INTO event_players (event_id, player_id, confirmed)
		VALUES ($1, $2, FALSE)
	`
	if _, err := r.db.ExecContext(ctx, query, eventID, playerID); err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return nil
}

func (r *PostgresRepository) ConfirmPlayer(ctx context.Context, eventID, playerID int32) (int64, error) {
	query := `
		UPDATE event_players SET confirmed = TRUE
		WHERE event_id = $1 AND player_id = $2 AND NOT confirmed
	`
	res, err := r.db.ExecContext(ctx, query, eventID, playerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return dbx.Affected(res)
}

func (r *PostgresRepository) RemovePlayer(ctx context.Context, eventID, playerID int32) (int64, error) {
	query := `DELETE FROM event_players WHERE event_id = $1 AND player_id = $2`

	res, err := r.db.ExecContext(ctx, query, eventID, playerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return dbx.Affected(res)
}

func (r *PostgresRepository) Roster(ctx context.Context, eventID int32) ([]int32, []int32, error) {
	query := `
		SELECT player_id, confirmed
		FROM event_players
		WHERE event_id = $1
		ORDER BY signup_seq
	`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	unconfirmed := make([]int32, 0)
	confirmed := make([]int32, 0)
	for rows.Next() {
		var (
			id int32
			ok bool
		)
		if err := rows.Scan(&id, &ok); err != nil {
			return nil, nil, fmt.Errorf("db error: %w", err)
		}
		if ok {
			confirmed = append(confirmed, id)
		} else {
			unconfirmed = append(unconfirmed, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	slices.Sort(confirmed)
	return unconfirmed, confirmed, nil
}
