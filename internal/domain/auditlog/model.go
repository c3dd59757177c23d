package auditlog

import "time"

// AuditLog is one append-only row in the audit trail.
type AuditLog struct {
	ID         int        `db:"id" json:"id"`
	UserID     int        `db:"user_id" json:"user_id"`
	UserType   string     `db:"user_type" json:"user_type"`
	Username   string     `db:"username" json:"username"`
	Action     string     `db:"action" json:"action"`
	EntityType string     `db:"entity_type" json:"entity_type"`
	EntityID   *int       `db:"entity_id" json:"entity_id,omitempty"`
	NewValues  *string    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string     `db:"ip_address" json:"ip_address"`
	UserAgent  string     `db:"user_agent" json:"user_agent"`
	Result     string     `db:"result" json:"result"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Results recorded for an audited action.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
