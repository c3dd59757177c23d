package notification

import "context"

// Repository is the persistence contract for notifications. All reads apply
// the staff relevance filter and exclude expired rows.
type Repository interface {
	List(ctx context.Context, q ListQuery) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	// MarkRead flips one notification owned by the user; reports whether a
	// row changed.
	MarkRead(ctx context.Context, id, userID int) (bool, error)
	// MarkAllRead returns the number of rows flipped.
	MarkAllRead(ctx context.Context, userID int) (int, error)
}
