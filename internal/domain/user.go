package domain

import "time"

// User is the domain representation of a registered user.
type User struct {
	ID   UserID
	Name string

	// PasswordHash is a bcrypt hash. It never leaves the app layer.
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}
