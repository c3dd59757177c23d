package identity

import "context"

// Repository is the persistence contract for user accounts.
type Repository interface {
	GetByID(ctx context.Context, id int) (*User, error)
	// GetByLogin matches either the username or the email of an active account.
	GetByLogin(ctx context.Context, login string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	FirstActiveByRole(ctx context.Context, role string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateProfile(ctx context.Context, id int, p ProfileUpdate) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}
