package auditlog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditLogRepoPG struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepoPG(pool *pgxpool.Pool) *AuditLogRepoPG {
	return &AuditLogRepoPG{pool: pool}
}

const auditCols = `id, user_id, user_type, username, action, entity_type, entity_id,
	new_values, ip_address, user_agent, result, created_at`

func scanAuditLog(row pgx.Row) (*AuditLog, error) {
	var a AuditLog
	err := row.Scan(
		&a.ID, &a.UserID, &a.UserType, &a.Username, &a.Action, &a.EntityType, &a.EntityID,
		&a.NewValues, &a.IPAddress, &a.UserAgent, &a.Result, &a.CreatedAt,
	)
	return &a, err
}

func (r *AuditLogRepoPG) Insert(ctx context.Context, entry *AuditLog) error {
	return r.pool.QueryRow(ctx, `INSERT INTO audit_logs
		(user_id, user_type, username, action, entity_type, entity_id, new_values, ip_address, user_agent, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		entry.UserID, entry.UserType, entry.Username, entry.Action, entry.EntityType,
		entry.EntityID, entry.NewValues, entry.IPAddress, entry.UserAgent, entry.Result,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *AuditLogRepoPG) ListByUser(ctx context.Context, userID, limit, offset int) ([]*AuditLog, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+auditCols+` FROM audit_logs WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
