package notification

import "time"

// Staff relevance filter: these types always surface, and so does anything
// whose title mentions one of the staff topics.
var (
	StaffTypes       = []string{"success", "warning", "urgent"}
	StaffTitleTopics = []string{"Patient", "Disease", "Outbreak", "Medical Record", "Assignment"}
)

type Notification struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	IsRead    bool       `json:"is_read"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ListQuery carries the listing parameters for one user's notifications.
type ListQuery struct {
	UserID     int
	Limit      int
	Offset     int
	UnreadOnly bool
}
