package domain

import "time"

// User represents a registered account. Every other entity in the system
// is owned by exactly one user.
type User struct {
	Timestamps
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"` // Stored hashed, filter from API responses
	LastLoginAt  time.Time `json:"lastLoginAt,omitzero"`
}

// Name returns the best available display name for the user.
func (u *User) Name() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
