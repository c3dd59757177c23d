package identity

import "time"

const (
	RoleStaff = "staff"
	RoleAdmin = "admin"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is a staff or admin account.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	FullName     string    `json:"full_name"`
	Phone        *string   `json:"phone,omitempty"`
	Position     *string   `json:"position,omitempty"`
	Department   *string   `json:"department,omitempty"`
	RHUName      *string   `json:"rhu_name,omitempty"`
	RHUAddress   *string   `json:"rhu_address,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName is the name shown in the UI and embedded in sessions.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Position   *string `json:"position"`
	Department *string `json:"department"`
	RHUName    *string `json:"rhu_name"`
	RHUAddress *string `json:"rhu_address"`
}
