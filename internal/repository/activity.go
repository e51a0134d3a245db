package repository

import (
	"context"

	"github.com/Uzinex/Boost-v1.0/internal/model"
)

const activityHistoryLimit = 100

// InsertEvent appends an activity entry. The caller-supplied id makes the
// append idempotent: replays of the same event are silently dropped.
func (r *Repository) InsertEvent(ctx context.Context, userID string, event *model.ActivityEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, user_id, type, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, userID, string(event.Type), event.Amount, event.Description, event.CreatedAt)
	return err
}

func (r *Repository) ListEvents(ctx context.Context, userID string) ([]model.ActivityEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, amount, description, created_at
		FROM activity_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, activityHistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.ActivityEvent
	for rows.Next() {
		var e model.ActivityEvent
		if err := rows.Scan(&e.ID, &e.Type, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
