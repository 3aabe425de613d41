package domain

import "time"

// User represents an account that owns recipes, tags and ingredients.
type User struct {
	Timestamps
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`

	// IsActive gates authentication. Inactive users keep their data but cannot obtain tokens.
	IsActive bool `json:"is_active"`

	// IsStaff and IsSuperuser are only set by the createsuperuser command.
	IsStaff     bool `json:"is_staff"`
	IsSuperuser bool `json:"is_superuser"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// CanAuthenticate reports whether the user may be issued or present a token.
func (u *User) CanAuthenticate() bool {
	return u.IsActive
}

// ProfileUpdate names the user columns a profile edit changes.
// Nil fields keep their stored value.
type ProfileUpdate struct {
	Email        *string
	Name         *string
	PasswordHash *string
}

// AuthToken is the opaque key row backing issued tokens. One per user.
type AuthToken struct {
	Key       string    `json:"-"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
