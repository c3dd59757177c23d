package auditlog

import "context"

// Repository persists and reads audit rows.
type Repository interface {
	Insert(ctx context.Context, entry *AuditLog) error
	ListByUser(ctx context.Context, userID, limit, offset int) ([]*AuditLog, int, error)
}
