package db

import (
	"context"
	"time"

	"github.com/cinehub/backoffice/internal/db/models"
)

// InsertActivity appends an entry to a user's activity log.
func (d *Database) InsertActivity(ctx context.Context, userID int64, activityType, description, ipAddress string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO activities (user_id, activity_type, description, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, activityType, description, ipAddress, time.Now().UTC(),
	)
	return err
}

// ListActivities returns the most recent entries of a user, newest first.
func (d *Database) ListActivities(ctx context.Context, userID int64, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, activity_type, description, ip_address, created_at
		FROM activities WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		a := &models.Activity{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.Description, &a.IPAddress, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// CountActivities counts a user's entries. userID 0 counts every entry.
func (d *Database) CountActivities(ctx context.Context, userID int64) (int, error) {
	var count int
	var err error
	if userID == 0 {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities").Scan(&count)
	} else {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities WHERE user_id = ?", userID).Scan(&count)
	}
	return count, err
}

// PruneActivities deletes entries older than before and returns how many.
func (d *Database) PruneActivities(ctx context.Context, before time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, "DELETE FROM activities WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
