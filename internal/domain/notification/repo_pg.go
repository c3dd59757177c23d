package notification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepoPG struct {
	pool *pgxpool.Pool
}

func NewNotificationRepoPG(pool *pgxpool.Pool) *NotificationRepoPG {
	return &NotificationRepoPG{pool: pool}
}

// staffRelevant matches the notification types and title topics staff care
// about; $1 is always the user id in queries that embed it.
const staffRelevant = `(
	type IN ('success', 'warning', 'urgent')
	OR title ILIKE '%Patient%'
	OR title ILIKE '%Disease%'
	OR title ILIKE '%Outbreak%'
	OR title ILIKE '%Medical Record%'
	OR title ILIKE '%Assignment%'
)`

const notExpired = `(expires_at IS NULL OR expires_at >= NOW())`

func (r *NotificationRepoPG) List(ctx context.Context, q ListQuery) ([]*Notification, error) {
	sql := `SELECT id, user_id, title, message, type, is_read, expires_at, created_at, updated_at
		FROM notifications
		WHERE user_id = $1 AND ` + staffRelevant + ` AND ` + notExpired
	if q.UnreadOnly {
		sql += ` AND NOT is_read`
	}
	sql += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, sql, q.UserID, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type,
			&n.IsRead, &n.ExpiresAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &n)
	}
	return items, rows.Err()
}

func (r *NotificationRepoPG) UnreadCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE user_id = $1 AND NOT is_read AND `+staffRelevant+` AND `+notExpired,
		userID).Scan(&count)
	return count, err
}

func (r *NotificationRepoPG) MarkRead(ctx context.Context, id, userID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND NOT is_read`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *NotificationRepoPG) MarkAllRead(ctx context.Context, userID int) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true, updated_at = NOW()
		 WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
